package storage

import "positionScope/internal/model"

// Storage defines a sink for valued positions.
type Storage interface {
	PutValuations(positions []model.ValuedPosition) error
}
