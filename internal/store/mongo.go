package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/models"
)

// MongoStore persists orders in the "orders" collection and implements
// Watch over change streams.
type MongoStore struct {
	orders *mongo.Collection
	log    logger.ILogger
}

func NewMongoStore(db *mongo.Database, log logger.ILogger) *MongoStore {
	return &MongoStore{
		orders: db.Collection("orders"),
		log:    log,
	}
}

func (s *MongoStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, UnavailableError{Op: "get", Err: err}
	}
	return &order, nil
}

func (s *MongoStore) Insert(ctx context.Context, order *models.Order) error {
	res, err := s.orders.InsertOne(ctx, order)
	if err != nil {
		return UnavailableError{Op: "insert", Err: err}
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *MongoStore) Replace(ctx context.Context, order *models.Order, expected models.OrderStatus) error {
	filter := bson.M{"_id": order.ID, "status": expected}
	res, err := s.orders.ReplaceOne(ctx, filter, order)
	if err != nil {
		return UnavailableError{Op: "replace", Err: err}
	}
	if res.MatchedCount == 0 {
		// Either the document is gone or its status moved under us.
		count, err := s.orders.CountDocuments(ctx, bson.M{"_id": order.ID})
		if err != nil {
			return UnavailableError{Op: "replace", Err: err}
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStale
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, filter Filter) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, UnavailableError{Op: "query", Err: err}
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, UnavailableError{Op: "query", Err: err}
	}
	return orders, nil
}

func (s *MongoStore) Watch(ctx context.Context, filter Filter) (<-chan Event, func(), error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: filter.toChangeStreamMatch()}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.orders.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, nil, UnavailableError{Op: "watch", Err: err}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		for stream.Next(watchCtx) {
			var change struct {
				DocumentKey struct {
					ID primitive.ObjectID `bson:"_id"`
				} `bson:"documentKey"`
			}
			if err := stream.Decode(&change); err != nil {
				s.log.Error("change stream decode failed", logger.Err(err))
				continue
			}
			select {
			case events <- Event{OrderID: change.DocumentKey.ID}:
			case <-watchCtx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			s.log.Error("change stream ended", logger.Err(err))
		}
	}()

	var once sync.Once
	stop := func() { once.Do(cancel) }
	return events, stop, nil
}

func (f Filter) toBSON() bson.M {
	if !f.RestaurantID.IsZero() {
		return bson.M{"restaurantId": f.RestaurantID}
	}
	return bson.M{"userId": f.CustomerID}
}

func (f Filter) toChangeStreamMatch() bson.M {
	if !f.RestaurantID.IsZero() {
		return bson.M{"fullDocument.restaurantId": f.RestaurantID}
	}
	return bson.M{"fullDocument.userId": f.CustomerID}
}
