package activity

import "context"

type Repository interface {
	ListByBucket(ctx context.Context, userID, bucketID string, types []Type) ([]Activity, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Activity, error)
	// CreateActivity inserts the row unless its client id is already known,
	// in which case the stored row is returned and created is false.
	CreateActivity(ctx context.Context, activity *Activity) (bool, *Activity, error)
}
