package api

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/api/shared"
	"github.com/keelson/folio-api/internal/hooks"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/platform/logger"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
	"github.com/keelson/folio-api/internal/service/auth"
	"github.com/keelson/folio-api/internal/store"
)

// maxBodyBytes caps request document size.
const maxBodyBytes = 1 << 20

// RepositoryProvider resolves the repository for a resource type. The
// postgres store implements it; tests use in-memory fakes.
type RepositoryProvider interface {
	Repository(resourceType string) (store.Repository, bool)
}

// ResourceHandler serves every JSON:API endpoint for one resource type:
// collection, resource, related, and relationship routes.
type ResourceHandler struct {
	sch        *schema.Schema
	repos      RepositoryProvider
	validator  *query.Validator
	serializer *serializer.Serializer
	hooks      *hooks.Registry
	authorizer auth.Authorizer
}

// NewResourceHandler creates a handler for one registered resource type.
func NewResourceHandler(
	sch *schema.Schema,
	repos RepositoryProvider,
	validator *query.Validator,
	ser *serializer.Serializer,
	hookRegistry *hooks.Registry,
	authorizer auth.Authorizer,
) *ResourceHandler {
	// ALLOW-PANIC: Constructor enforcing required dependency
	if sch == nil {
		panic("schema cannot be nil")
	}
	if repos == nil {
		panic("repository provider cannot be nil")
	}
	if validator == nil {
		panic("validator cannot be nil")
	}
	if ser == nil {
		panic("serializer cannot be nil")
	}
	if hookRegistry == nil {
		hookRegistry = hooks.NewRegistry()
	}
	if authorizer == nil {
		authorizer = auth.AllowAll{}
	}
	return &ResourceHandler{
		sch:        sch,
		repos:      repos,
		validator:  validator,
		serializer: ser,
		hooks:      hookRegistry,
		authorizer: authorizer,
	}
}

// Mount registers the handler's routes on the router.
func (h *ResourceHandler) Mount(r chi.Router) {
	r.Route("/"+h.sch.Type, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Route("/relationships/{relationship}", func(r chi.Router) {
				r.Get("/", h.GetRelationship)
				r.Patch("/", h.PatchRelationship)
				r.Post("/", h.PostRelationship)
				r.Delete("/", h.DeleteRelationship)
			})
			r.Get("/{relationship}", h.GetRelated)
		})
	})
}

func (h *ResourceHandler) repo() (store.Repository, bool) {
	return h.repos.Repository(h.sch.Type)
}

// authorize consults the authorizer for the current caller.
func (h *ResourceHandler) authorize(r *http.Request, action auth.Action) error {
	var userID *uuid.UUID
	if id, ok := shared.GetUserID(r.Context()); ok {
		userID = &id
	}
	return h.authorizer.Authorize(r.Context(), userID, action, h.sch.Type)
}

func (h *ResourceHandler) params(r *http.Request) (*query.Params, jsonapi.ErrorList) {
	return h.validator.Validate(h.sch, r.URL.Query())
}

func readBody(r *http.Request) ([]byte, jsonapi.ErrorList) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusBadRequest, "Invalid request body",
				"request body could not be read").WithCode("invalid_body"),
		}
	}
	if len(body) > maxBodyBytes {
		return nil, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusRequestEntityTooLarge, "Request body too large",
				"request document exceeds the size limit").WithCode("body_too_large"),
		}
	}
	return body, nil
}

// List serves GET /{type}. A singular filter[id] request answers with a
// single-resource document instead of a collection.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionList); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	params, errs := h.params(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}
	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}

	result, err := repo.List(r.Context(), params)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	g, err := repo.LoadGraph(r.Context(), result.Resources, params.Includes)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	if _, singular := params.SingularFilter(); singular {
		if len(result.Resources) == 0 {
			shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
			return
		}
		doc, err := h.serializer.Single(h.sch, result.Resources[0], params, g, r.URL)
		if err != nil {
			shared.RespondWithErrors(w, r, TranslateError(err))
			return
		}
		shared.RespondWithDocument(w, r, http.StatusOK, doc)
		return
	}

	page := &serializer.PageInfo{
		Number: params.Page.Number,
		Size:   params.Page.Size,
		Total:  result.Total,
	}
	doc, err := h.serializer.Collection(h.sch, result.Resources, params, g, r.URL, page)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

// Get serves GET /{type}/{id}.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionGet); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	params, errs := h.params(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}
	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}

	res, err := repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	g, err := repo.LoadGraph(r.Context(), []schema.Resource{res}, params.Includes)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	doc, err := h.serializer.Single(h.sch, res, params, g, r.URL)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

// Create serves POST /{type}.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionCreate); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	body, errs := readBody(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	doc, errs := jsonapi.ParseResourceDocument(body, jsonapi.ParseOptions{
		ExpectedType: h.sch.Type,
	})
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	if err := h.hooks.RunBeforeCreate(r.Context(), h.sch.Type, doc); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	res, err := repo.Create(r.Context(), doc)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	if err := h.hooks.RunAfterCreate(r.Context(), res); err != nil {
		logger.FromContext(r.Context()).Error("after-create hook failed",
			"resource_type", h.sch.Type,
			"resource_id", res.ResourceID(),
			"error", err)
	}

	g, err := repo.LoadGraph(r.Context(), []schema.Resource{res}, nil)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	out, err := h.serializer.Single(h.sch, res, query.EmptyParams(), g, r.URL)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	w.Header().Set("Location", "/"+h.sch.Type+"/"+res.ResourceID())
	shared.RespondWithDocument(w, r, http.StatusCreated, out)
}

// Update serves PATCH /{type}/{id}.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionUpdate); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	id := chi.URLParam(r, "id")
	body, errs := readBody(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	doc, errs := jsonapi.ParseResourceDocument(body, jsonapi.ParseOptions{
		ExpectedType:  h.sch.Type,
		RequireID:     true,
		AllowClientID: true,
	})
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}
	if doc.ID != id {
		shared.RespondWithErrors(w, r, jsonapi.ErrorList{
			jsonapi.NewError(http.StatusConflict, "Identifier mismatch",
				"document id does not match the endpoint id").
				WithCode("id_mismatch").
				WithPointer("/data/id"),
		})
		return
	}

	if err := h.hooks.RunBeforeUpdate(r.Context(), h.sch.Type, doc); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	res, err := repo.Update(r.Context(), id, doc)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	if err := h.hooks.RunAfterUpdate(r.Context(), res); err != nil {
		logger.FromContext(r.Context()).Error("after-update hook failed",
			"resource_type", h.sch.Type,
			"resource_id", res.ResourceID(),
			"error", err)
	}

	g, err := repo.LoadGraph(r.Context(), []schema.Resource{res}, nil)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	out, err := h.serializer.Single(h.sch, res, query.EmptyParams(), g, r.URL)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, out)
}

// Delete serves DELETE /{type}/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionDelete); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	id := chi.URLParam(r, "id")

	res, err := repo.FindByID(r.Context(), id)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	if err := h.hooks.RunBeforeDelete(r.Context(), res); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	if err := repo.Delete(r.Context(), id); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusNoContent, nil)
}

// GetRelated serves GET /{type}/{id}/{relationship}, answering with the
// related resources themselves.
func (h *ResourceHandler) GetRelated(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionGet); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	rel, ok := h.sch.Relationship(chi.URLParam(r, "relationship"))
	if !ok {
		shared.RespondWithErrors(w, r, relationshipNotFound())
		return
	}

	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	relatedRepo, ok := h.repos.Repository(rel.Type)
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	relatedSch := relatedRepo.Schema()

	params, errs := h.validator.Validate(relatedSch, r.URL.Query())
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	parent, err := repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	g, err := repo.LoadGraph(r.Context(), []schema.Resource{parent}, [][]string{{rel.Name}})
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	related, _ := g.Related(parent, rel.Name)

	relatedGraph, err := relatedRepo.LoadGraph(r.Context(), related, params.Includes)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	var doc *jsonapi.Document
	if rel.ToMany {
		doc, err = h.serializer.Collection(relatedSch, related, params, relatedGraph, r.URL, nil)
	} else {
		var one schema.Resource
		if len(related) > 0 {
			one = related[0]
		}
		doc, err = h.serializer.Single(relatedSch, one, params, relatedGraph, r.URL)
	}
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

// GetRelationship serves GET /{type}/{id}/relationships/{relationship},
// answering with linkage only.
func (h *ResourceHandler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionGet); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	rel, ok := h.sch.Relationship(chi.URLParam(r, "relationship"))
	if !ok {
		shared.RespondWithErrors(w, r, relationshipNotFound())
		return
	}
	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}

	parent, err := repo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	g, err := repo.LoadGraph(r.Context(), []schema.Resource{parent}, [][]string{{rel.Name}})
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	doc, err := h.serializer.Relationship(h.sch, parent, rel.Name, g)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

// PatchRelationship serves PATCH .../relationships/{relationship} with
// full-replacement semantics. The response linkage reflects the request
// order with duplicates removed.
func (h *ResourceHandler) PatchRelationship(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, auth.ActionUpdate); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	rel, ok := h.sch.Relationship(chi.URLParam(r, "relationship"))
	if !ok {
		shared.RespondWithErrors(w, r, relationshipNotFound())
		return
	}

	body, errs := readBody(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}
	linkage, errs := jsonapi.ParseRelationshipDocument(body, rel.Type, rel.ToMany)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	refs := linkageRefs(linkage)
	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	id := chi.URLParam(r, "id")
	if err := repo.SetRelationship(r.Context(), id, rel.Name, refs); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	doc := &jsonapi.Document{JSONAPI: &jsonapi.VersionObject{Version: jsonapi.Version}}
	if rel.ToMany {
		doc.Data = relationshipData(jsonapi.ToManyLinkage(dedupeRefs(refs)))
	} else {
		var one *jsonapi.ResourceIdentifier
		if len(refs) > 0 {
			one = &refs[0]
		}
		doc.Data = relationshipData(jsonapi.ToOneLinkage(one))
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

// PostRelationship serves POST .../relationships/{relationship},
// attaching members to a to-many relationship.
func (h *ResourceHandler) PostRelationship(w http.ResponseWriter, r *http.Request) {
	h.modifyRelationship(w, r, store.Repository.AddToRelationship)
}

// DeleteRelationship serves DELETE .../relationships/{relationship},
// detaching members from a to-many relationship.
func (h *ResourceHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	h.modifyRelationship(w, r, store.Repository.RemoveFromRelationship)
}

type relationshipOp func(store.Repository, context.Context, string, string, []jsonapi.ResourceIdentifier) error

func (h *ResourceHandler) modifyRelationship(w http.ResponseWriter, r *http.Request, op relationshipOp) {
	if err := h.authorize(r, auth.ActionUpdate); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	rel, ok := h.sch.Relationship(chi.URLParam(r, "relationship"))
	if !ok {
		shared.RespondWithErrors(w, r, relationshipNotFound())
		return
	}
	if !rel.ToMany {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrUnsupportedRelationship))
		return
	}

	body, errs := readBody(r)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}
	linkage, errs := jsonapi.ParseRelationshipDocument(body, rel.Type, true)
	if errs != nil {
		shared.RespondWithErrors(w, r, errs)
		return
	}

	repo, ok := h.repo()
	if !ok {
		shared.RespondWithErrors(w, r, TranslateError(store.ErrNotFound))
		return
	}
	id := chi.URLParam(r, "id")
	if err := op(repo, r.Context(), id, rel.Name, linkage.Many); err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}

	parent, err := repo.FindByID(r.Context(), id)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	g, err := repo.LoadGraph(r.Context(), []schema.Resource{parent}, [][]string{{rel.Name}})
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	doc, err := h.serializer.Relationship(h.sch, parent, rel.Name, g)
	if err != nil {
		shared.RespondWithErrors(w, r, TranslateError(err))
		return
	}
	shared.RespondWithDocument(w, r, http.StatusOK, doc)
}

func relationshipNotFound() jsonapi.ErrorList {
	return jsonapi.ErrorList{
		jsonapi.NewError(http.StatusNotFound, "Relationship not found",
			"the requested relationship does not exist").WithCode("not_found"),
	}
}

func relationshipData(l *jsonapi.Linkage) *jsonapi.PrimaryData {
	if l.ToMany {
		objs := make([]*jsonapi.ResourceObject, 0, len(l.Many))
		for i := range l.Many {
			objs = append(objs, &jsonapi.ResourceObject{Type: l.Many[i].Type, ID: l.Many[i].ID})
		}
		return jsonapi.CollectionData(objs)
	}
	if l.One == nil {
		return jsonapi.SingleData(nil)
	}
	return jsonapi.SingleData(&jsonapi.ResourceObject{Type: l.One.Type, ID: l.One.ID})
}

func linkageRefs(l *jsonapi.Linkage) []jsonapi.ResourceIdentifier {
	if l == nil {
		return nil
	}
	if l.ToMany {
		return l.Many
	}
	if l.One == nil {
		return nil
	}
	return []jsonapi.ResourceIdentifier{*l.One}
}

func dedupeRefs(refs []jsonapi.ResourceIdentifier) []jsonapi.ResourceIdentifier {
	seen := make(map[string]bool, len(refs))
	out := make([]jsonapi.ResourceIdentifier, 0, len(refs))
	for _, ref := range refs {
		if seen[ref.String()] {
			continue
		}
		seen[ref.String()] = true
		out = append(out, ref)
	}
	return out
}
