package services

import (
	"context"
	"strings"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/repository"
)

// InfoService serves the navbar and the static info pages.
type InfoService interface {
	Navbar(ctx context.Context) ([]models.NavEntry, error)
	Get(ctx context.Context, viewName string) (*models.InfoPage, error)
	Create(ctx context.Context, req *models.InfoPageRequest) (*models.InfoPage, error)
}

type infoServiceImpl struct {
	store repository.Store
}

func NewInfoService(store repository.Store) InfoService {
	return &infoServiceImpl{store: store}
}

// Navbar lists the fixed menu links followed by every info page.
func (s *infoServiceImpl) Navbar(ctx context.Context) ([]models.NavEntry, error) {
	pages, err := s.store.Info().List(ctx)
	if err != nil {
		return nil, err
	}
	nav := []models.NavEntry{
		{Title: "Specials", URL: "/menu/specials/"},
		{Title: "Menu", URL: "/menu/"},
	}
	for _, p := range pages {
		nav = append(nav, models.NavEntry{Title: p.Title, URL: "/info/" + p.ViewName})
	}
	return nav, nil
}

func (s *infoServiceImpl) Get(ctx context.Context, viewName string) (*models.InfoPage, error) {
	page, err := s.store.Info().FindByViewName(ctx, viewName)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return page, nil
}

func (s *infoServiceImpl) Create(ctx context.Context, req *models.InfoPageRequest) (*models.InfoPage, error) {
	page := &models.InfoPage{
		ViewName:     strings.TrimSpace(req.ViewName),
		Title:        strings.TrimSpace(req.Title),
		TemplateName: strings.TrimSpace(req.TemplateName),
		Body:         req.Body,
	}
	page.ApplyDefaults()
	if err := s.store.Info().Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}
