// Package repository loads the team dataset and serves it to the ranking engine.
package repository

import (
	"context"

	"github.com/okian/draftrank/internal/domain/model"
)

// Store provides read access to the team dataset.
type Store interface {
	// AllTeamRecords returns every record of the current snapshot.
	AllTeamRecords(ctx context.Context) ([]model.TeamRecord, error)

	// Team returns one record. Returns ErrNotFound if the team is unknown.
	Team(ctx context.Context, teamNumber int) (model.TeamRecord, error)

	// Count returns the number of teams in the current snapshot.
	Count(ctx context.Context) int
}
