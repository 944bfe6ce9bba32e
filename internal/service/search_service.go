package service

import (
	"context"
	"html"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/grungysync/backend/internal/model"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

// SearchService keeps the Meilisearch indexes in sync with public content.
// Only public actions are indexed; visibility-restricted posts never leave
// the database.
type SearchService interface {
	IndexAction(ctx context.Context, action *model.Action, space *model.HobbySpace) error
	RemoveAction(ctx context.Context, id uuid.UUID) error
	IndexSpace(ctx context.Context, space *model.HobbySpace) error
	RemoveSpace(ctx context.Context, id uuid.UUID) error

	SearchActions(ctx context.Context, query string, spaceID *uuid.UUID, limit int) (*meilisearch.SearchResponse, error)
	SearchSpaces(ctx context.Context, query string, limit int) (*meilisearch.SearchResponse, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *searchService) initIndexes() {
	actionFilterable := []any{"hobby_space_id", "action_type", "user_id"}
	if _, err := s.client.Index("actions").UpdateFilterableAttributes(&actionFilterable); err != nil {
		log.Printf("Failed to update actions filterable attributes: %v", err)
	}

	actionSortable := []string{"created_at", "effort_score"}
	if _, err := s.client.Index("actions").UpdateSortableAttributes(&actionSortable); err != nil {
		log.Printf("Failed to update actions sortable attributes: %v", err)
	}

	spaceFilterable := []any{"category"}
	if _, err := s.client.Index("hobby_spaces").UpdateFilterableAttributes(&spaceFilterable); err != nil {
		log.Printf("Failed to update hobby_spaces filterable attributes: %v", err)
	}

	spaceSortable := []string{"member_count"}
	if _, err := s.client.Index("hobby_spaces").UpdateSortableAttributes(&spaceSortable); err != nil {
		log.Printf("Failed to update hobby_spaces sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliActionDoc struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	ActionType   string `json:"action_type"`
	UserID       string `json:"user_id"`
	HobbySpaceID string `json:"hobby_space_id"`
	SpaceName    string `json:"space_name"`
	SpaceSlug    string `json:"space_slug"`
	EffortScore  int    `json:"effort_score"`
	CreatedAt    int64  `json:"created_at"`
}

type meiliSpaceDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Category    string `json:"category"`
	MemberCount int    `json:"member_count"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexAction(ctx context.Context, action *model.Action, space *model.HobbySpace) error {
	doc := meiliActionDoc{
		ID:           action.ID.String(),
		Content:      s.cleanContentForIndex(action.Content),
		ActionType:   action.ActionType,
		UserID:       action.UserID.String(),
		HobbySpaceID: action.HobbySpaceID.String(),
		SpaceName:    space.Name,
		SpaceSlug:    space.Slug,
		EffortScore:  action.EffortScore,
		CreatedAt:    action.CreatedAt.Unix(),
	}

	task, err := s.client.Index("actions").AddDocuments([]meiliActionDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed action %s, task id: %d", action.ID, task.TaskUID)
	return nil
}

func (s *searchService) RemoveAction(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.Index("actions").DeleteDocument(id.String())
	return err
}

func (s *searchService) IndexSpace(ctx context.Context, space *model.HobbySpace) error {
	doc := meiliSpaceDoc{
		ID:          space.ID.String(),
		Name:        space.Name,
		Slug:        space.Slug,
		Description: s.cleanContentForIndex(space.Description),
		Category:    space.Category,
		MemberCount: space.MemberCount,
	}

	task, err := s.client.Index("hobby_spaces").AddDocuments([]meiliSpaceDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed hobby space %s, task id: %d", space.ID, task.TaskUID)
	return nil
}

func (s *searchService) RemoveSpace(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.Index("hobby_spaces").DeleteDocument(id.String())
	return err
}

func (s *searchService) SearchActions(ctx context.Context, query string, spaceID *uuid.UUID, limit int) (*meilisearch.SearchResponse, error) {
	req := &meilisearch.SearchRequest{
		Limit: int64(limit),
		Sort:  []string{"created_at:desc"},
	}
	if spaceID != nil {
		req.Filter = "hobby_space_id = " + spaceID.String()
	}
	return s.client.Index("actions").Search(query, req)
}

func (s *searchService) SearchSpaces(ctx context.Context, query string, limit int) (*meilisearch.SearchResponse, error) {
	return s.client.Index("hobby_spaces").Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
		Sort:  []string{"member_count:desc"},
	})
}

func strPtr(s string) *string {
	return &s
}
