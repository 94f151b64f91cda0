package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler serves link management and the public redirect.
type LinkHandler struct {
	links      *shortener.Service
	retriever  *shortener.Retriever
	updater    *shortener.Updater
	deleter    *shortener.Deleter
	publishers *analytics.Publishers
	baseURL    string
	logger     *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	links *shortener.Service,
	retriever *shortener.Retriever,
	updater *shortener.Updater,
	deleter *shortener.Deleter,
	publishers *analytics.Publishers,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		links:      links,
		retriever:  retriever,
		updater:    updater,
		deleter:    deleter,
		publishers: publishers,
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (h *LinkHandler) Create(ctx context.Context, req *CreateLinkRequest) (*LinkResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	link, err := h.links.Create(ctx, toCreateLink(req.Body), ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	meta := middleware.MetaFromContext(ctx)
	event := &analytics.LinkCreatedEvent{
		Code:      string(link.Code),
		LongURL:   link.LongURL,
		IsCustom:  link.IsCustom,
		OwnerID:   link.OwnerID,
		CreatedAt: link.CreatedAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}

	if err := h.publishers.LinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish link created event",
			zap.String("code", event.Code),
			zap.String("request_id", meta.RequestID),
			zap.Error(err),
		)
	}

	resp := &LinkResponse{}
	resp.Body.Item = h.linkBody(link)

	return resp, nil
}

func (h *LinkHandler) List(ctx context.Context, req *ListRequest) (*ListLinksResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	items, pagination, err := h.links.List(ctx, ownerID, shortener.Page{Number: req.Page, Size: req.PageSize})
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &ListLinksResponse{}
	resp.Body.Items = make([]LinkBody, 0, len(items))

	for i := range items {
		resp.Body.Items = append(resp.Body.Items, h.linkBody(&items[i]))
	}

	resp.Body.Pagination = paginationBody(pagination)

	return resp, nil
}

func (h *LinkHandler) Details(ctx context.Context, req *ShortCodeRequest) (*LinkResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	link, err := h.links.Details(ctx, shortener.Code(req.ShortCode), ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &LinkResponse{}
	resp.Body.Item = h.linkBody(link)

	return resp, nil
}

func (h *LinkHandler) Update(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	changes := shortener.LinkChanges{FriendlyName: req.Body.FriendlyName, LongURL: req.Body.LongURL}

	link, err := h.updater.Update(ctx, shortener.Code(req.ShortCode), changes, ownerID)
	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	resp := &LinkResponse{}
	resp.Body.Item = h.linkBody(link)

	return resp, nil
}

func (h *LinkHandler) Delete(ctx context.Context, req *ShortCodeRequest) (*NoContentResponse, error) {
	ownerID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.deleter.Delete(ctx, shortener.Code(req.ShortCode), ownerID); err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	return &NoContentResponse{}, nil
}

// Redirect resolves a short code for anyone and reports whether the cache served it.
func (h *LinkHandler) Redirect(ctx context.Context, req *ShortCodeRequest) (*RedirectResponse, error) {
	longURL, status, err := h.retriever.Retrieve(ctx, shortener.Code(req.ShortCode))
	if errors.Is(err, shortener.ErrNotFound) {
		return nil, NewLinkNotFoundError(req.ShortCode)
	}

	if err != nil {
		return nil, toHTTPError(err, h.logger)
	}

	meta := middleware.MetaFromContext(ctx)
	event := &analytics.LinkAccessedEvent{
		Code:        req.ShortCode,
		CacheStatus: string(status),
		AccessedAt:  time.Now().UTC(),
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
		Referrer:    meta.Referrer,
	}

	if err := h.publishers.LinkAccessed(ctx, event); err != nil {
		h.logger.Error("failed to publish link accessed event",
			zap.String("code", event.Code),
			zap.String("request_id", meta.RequestID),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:      http.StatusTemporaryRedirect,
		Location:    longURL,
		CacheStatus: string(status),
	}, nil
}

func (h *LinkHandler) linkBody(link *shortener.ShortLink) LinkBody {
	return LinkBody{
		ID:                link.ID,
		ShortCode:         string(link.Code),
		ShortURL:          shortURL(h.baseURL, link.Code),
		LongURL:           link.LongURL,
		FriendlyName:      link.FriendlyName,
		IsShortCodeCustom: link.IsCustom,
		CreatedAt:         link.CreatedAt,
	}
}

func toCreateLink(body CreateLinkBody) shortener.CreateLink {
	return shortener.CreateLink{
		FriendlyName: body.FriendlyName,
		IsCustom:     body.IsShortCodeCustom,
		Code:         body.ShortCode,
		LongURL:      body.LongURL,
	}
}

func shortURL(baseURL string, code shortener.Code) string {
	return fmt.Sprintf("%s/%s", baseURL, code)
}

func paginationBody(p shortener.Pagination) PaginationBody {
	return PaginationBody{
		CurrentPage: p.CurrentPage,
		PageSize:    p.PageSize,
		TotalPages:  p.TotalPages,
		TotalItems:  p.TotalItems,
	}
}

// currentUser returns the id the auth middleware stored for this request.
func currentUser(ctx context.Context) (int64, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return 0, huma.Error401Unauthorized("authentication required")
	}

	return id, nil
}
