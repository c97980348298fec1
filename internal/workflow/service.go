// Package workflow implements the attendance and absence-justification
// workflow: the attendance ledger, the absence record store, the request
// state machine, the notification dispatcher and the authorization guard.
// Every mutating operation runs as one transaction; notifications commit
// with the transition that produced them or not at all.
package workflow

import "campus/attendance/internal/repository"

type Service struct {
	store *repository.Store
}

func New(store *repository.Store) *Service {
	return &Service{store: store}
}
