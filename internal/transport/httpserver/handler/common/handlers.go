package common

import (
	preferencesdomain "buckety-go/internal/domain/preferences"
	syncdomain "buckety-go/internal/domain/sync"
	"buckety-go/internal/localstore"
	"buckety-go/pkg/logger"
)

type Handlers struct {
	Sync        *syncdomain.Service
	Preferences *preferencesdomain.Service
	Cache       *localstore.Repository
	log         logger.Logger
}

func New(sync *syncdomain.Service, preferences *preferencesdomain.Service, cache *localstore.Repository, log logger.Logger) *Handlers {
	return &Handlers{
		Sync:        sync,
		Preferences: preferences,
		Cache:       cache,
		log:         log,
	}
}
