package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/commonground-app/commonground/internal/database"
	"github.com/commonground-app/commonground/internal/types"
)

type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageUrl string `json:"image_url"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

type CreateInitiativeRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

type CreateOrganizationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Website     string `json:"website"`
}

type CreateResourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Url         string `json:"url"`
}

type CreateOpportunityRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

func postFromDb(p database.Post) types.Post {
	out := types.Post{
		Id: p.Id,
		Author: types.User{
			Id:   p.AuthorId,
			Name: p.AuthorName,
		},
		Content:   p.Content,
		ImageUrl:  p.ImageUrl,
		Likes:     p.Likes,
		Comments:  make([]types.Comment, 0, len(p.Comments)),
		CreatedAt: p.CreatedAt,
	}

	if out.Likes == nil {
		out.Likes = []int{}
	}

	for _, c := range p.Comments {
		out.Comments = append(out.Comments, types.Comment{
			Id: c.Id,
			User: types.User{
				Id:   c.UserId,
				Name: c.UserName,
			},
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}

	return out
}

func initiativeFromDb(i database.Initiative) types.Initiative {
	return types.Initiative{
		Id:          i.Id,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Status:      i.Status,
		Tags:        i.Tags,
		CreatedBy: types.User{
			Id:   i.CreatorId,
			Name: i.CreatorName,
		},
		CreatedAt: i.CreatedAt,
	}
}

func (s *CommonGroundApp) createPost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Content == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	post, err := s.db.CreatePost(database.CreatePostParams{
		AuthorId: userId,
		Content:  req.Content,
		ImageUrl: req.ImageUrl,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, postFromDb(post))
}

func (s *CommonGroundApp) listPosts(w http.ResponseWriter, r *http.Request) {
	dbPosts, err := s.db.ListPosts()
	if err != nil {
		s.log.Println("list posts:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	posts := make([]types.Post, 0, len(dbPosts))
	for _, p := range dbPosts {
		posts = append(posts, postFromDb(p))
	}

	s.writeJson(w, http.StatusOK, posts)
}

func (s *CommonGroundApp) likePost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	postId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	post, err := s.db.TogglePostLike(postId, userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, postFromDb(post))
}

func (s *CommonGroundApp) commentPost(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	postId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Content == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	post, err := s.db.AddPostComment(postId, userId, req.Content)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, postFromDb(post))
}

func (s *CommonGroundApp) createInitiative(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateInitiativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Status == "" {
		req.Status = "proposed"
	}

	initiative, err := s.db.CreateInitiative(database.CreateInitiativeParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		Tags:        req.Tags,
		CreatorId:   userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, initiativeFromDb(initiative))
}

func (s *CommonGroundApp) listInitiatives(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")

	dbInitiatives, err := s.db.ListInitiatives(category, status)
	if err != nil {
		s.log.Println("list initiatives:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	initiatives := make([]types.Initiative, 0, len(dbInitiatives))
	for _, i := range dbInitiatives {
		initiatives = append(initiatives, initiativeFromDb(i))
	}

	s.writeJson(w, http.StatusOK, initiatives)
}

func (s *CommonGroundApp) createOrganization(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	org, err := s.db.CreateOrganization(database.CreateOrganizationParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Website:     req.Website,
		CreatorId:   userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Organization{
		Id:          org.Id,
		Name:        org.Name,
		Description: org.Description,
		Category:    org.Category,
		Website:     org.Website,
		CreatedBy:   types.User{Id: org.CreatorId},
		CreatedAt:   org.CreatedAt,
	})
}

func (s *CommonGroundApp) listOrganizations(w http.ResponseWriter, r *http.Request) {
	dbOrgs, err := s.db.ListOrganizations(r.URL.Query().Get("category"))
	if err != nil {
		s.log.Println("list organizations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	orgs := make([]types.Organization, 0, len(dbOrgs))
	for _, o := range dbOrgs {
		orgs = append(orgs, types.Organization{
			Id:          o.Id,
			Name:        o.Name,
			Description: o.Description,
			Category:    o.Category,
			Website:     o.Website,
			CreatedBy:   types.User{Id: o.CreatorId},
			CreatedAt:   o.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, orgs)
}

func (s *CommonGroundApp) createResource(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res, err := s.db.CreateResource(database.CreateResourceParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Url:         req.Url,
		CreatorId:   userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Resource{
		Id:          res.Id,
		Title:       res.Title,
		Description: res.Description,
		Category:    res.Category,
		Url:         res.Url,
		CreatedBy:   types.User{Id: res.CreatorId},
		CreatedAt:   res.CreatedAt,
	})
}

func (s *CommonGroundApp) listResources(w http.ResponseWriter, r *http.Request) {
	dbResources, err := s.db.ListResources(r.URL.Query().Get("category"))
	if err != nil {
		s.log.Println("list resources:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resources := make([]types.Resource, 0, len(dbResources))
	for _, res := range dbResources {
		resources = append(resources, types.Resource{
			Id:          res.Id,
			Title:       res.Title,
			Description: res.Description,
			Category:    res.Category,
			Url:         res.Url,
			CreatedBy:   types.User{Id: res.CreatorId},
			CreatedAt:   res.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, resources)
}

func (s *CommonGroundApp) createOpportunity(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	opp, err := s.db.CreateOpportunity(database.CreateOpportunityParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		CreatorId:   userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Opportunity{
		Id:          opp.Id,
		Title:       opp.Title,
		Description: opp.Description,
		Category:    opp.Category,
		Location:    opp.Location,
		CreatedBy:   types.User{Id: opp.CreatorId},
		CreatedAt:   opp.CreatedAt,
	})
}

func (s *CommonGroundApp) listOpportunities(w http.ResponseWriter, r *http.Request) {
	dbOpps, err := s.db.ListOpportunities(r.URL.Query().Get("category"))
	if err != nil {
		s.log.Println("list opportunities:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	opps := make([]types.Opportunity, 0, len(dbOpps))
	for _, opp := range dbOpps {
		opps = append(opps, types.Opportunity{
			Id:          opp.Id,
			Title:       opp.Title,
			Description: opp.Description,
			Category:    opp.Category,
			Location:    opp.Location,
			CreatedBy:   types.User{Id: opp.CreatorId},
			CreatedAt:   opp.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, opps)
}
