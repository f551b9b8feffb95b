// Package mongo stores the ledgers as documents in MongoDB, one collection
// per ledger.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"boutique/internal/core"
	"boutique/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository implements storage.Repository on MongoDB.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository connects, pings and makes sure the sort indexes exist.
func NewRepository(ctx context.Context, uri, dbName string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	r := &Repository{client: client, db: client.Database(dbName)}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	slog.InfoContext(ctx, "Connected to MongoDB", "database", dbName)
	return r, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	for _, c := range core.Collections {
		_, err := r.coll(c).Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: c.SortField(), Value: -1}}},
			{Keys: bson.D{{Key: "syncedAt", Value: 1}}},
		})
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", c, err)
		}
	}
	return nil
}

func (r *Repository) coll(c core.Collection) *mongo.Collection {
	return r.db.Collection(string(c))
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) insert(ctx context.Context, c core.Collection, doc any) (string, error) {
	res, err := r.coll(c).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", c.Noun(), err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert %s: unexpected id type %T", c.Noun(), res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *Repository) CreateSale(ctx context.Context, s core.Sale) (string, error) {
	return r.insert(ctx, core.CollectionSales, newSaleDoc(s))
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	return r.insert(ctx, core.CollectionExpenses, newExpenseDoc(e))
}

func (r *Repository) CreateOrder(ctx context.Context, o core.TailoringOrder) (string, error) {
	return r.insert(ctx, core.CollectionOrders, newOrderDoc(o))
}

func (r *Repository) CreateDesign(ctx context.Context, d core.Design) (string, error) {
	return r.insert(ctx, core.CollectionDesigns, newDesignDoc(d))
}

// orderUpdateDoc builds the $set document for a partial order update.
func orderUpdateDoc(u core.OrderUpdate) bson.M {
	set := bson.M{"syncedAt": nil}
	if u.Advance != nil {
		set["advance"] = u.Advance.Paise
	}
	if u.Balance != nil {
		set["balance"] = u.Balance.Paise
	}
	if u.Status != nil {
		set["status"] = string(*u.Status)
	}
	return bson.M{"$set": set}
}

func (r *Repository) UpdateOrder(ctx context.Context, id string, u core.OrderUpdate) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	coll := r.coll(core.CollectionOrders)
	res, err := coll.UpdateOne(ctx, orderFilter(oid, u), orderUpdateDoc(u))
	if err != nil {
		return fmt.Errorf("update tailoring order %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if u.IfAdvance != nil {
		n, err := coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("update tailoring order %s: %w", id, err)
		}
		if n > 0 {
			return fmt.Errorf("update tailoring order %s: %w", id, storage.ErrConflict)
		}
	}
	return fmt.Errorf("update tailoring order %s: %w", id, storage.ErrNotFound)
}

// orderFilter matches the order, and its current advance when the update is
// conditional on it.
func orderFilter(oid primitive.ObjectID, u core.OrderUpdate) bson.M {
	f := bson.M{"_id": oid}
	if u.IfAdvance != nil {
		f["advance"] = u.IfAdvance.Paise
	}
	return f
}

func findOptions(c core.Collection, opts storage.ListOptions) (*options.FindOptions, error) {
	field := opts.OrderBy
	if field == "" {
		field = c.SortField()
	}
	if _, err := storage.OrderColumn(c, field); err != nil {
		return nil, err
	}
	dir := 1
	if opts.Desc {
		dir = -1
	}
	return options.Find().SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}), nil
}

func list[D any, T any](ctx context.Context, r *Repository, c core.Collection, opts storage.ListOptions, conv func(D) T) ([]T, error) {
	fo, err := findOptions(c, opts)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll(c).Find(ctx, bson.M{}, fo)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	out := make([]T, len(docs))
	for i, d := range docs {
		out[i] = conv(d)
	}
	return out, nil
}

func (r *Repository) ListSales(ctx context.Context, opts storage.ListOptions) ([]core.Sale, error) {
	return list(ctx, r, core.CollectionSales, opts, saleDoc.record)
}

func (r *Repository) ListExpenses(ctx context.Context, opts storage.ListOptions) ([]core.Expense, error) {
	return list(ctx, r, core.CollectionExpenses, opts, expenseDoc.record)
}

func (r *Repository) ListOrders(ctx context.Context, opts storage.ListOptions) ([]core.TailoringOrder, error) {
	return list(ctx, r, core.CollectionOrders, opts, orderDoc.record)
}

func (r *Repository) ListDesigns(ctx context.Context, opts storage.ListOptions) ([]core.Design, error) {
	return list(ctx, r, core.CollectionDesigns, opts, designDoc.record)
}

func get[D any, T any](ctx context.Context, r *Repository, c core.Collection, id string, conv func(D) T) (T, error) {
	var zero T
	oid, err := objectID(id)
	if err != nil {
		return zero, err
	}
	var doc D
	if err := r.coll(c).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, fmt.Errorf("get %s %s: %w", c.Noun(), id, storage.ErrNotFound)
		}
		return zero, fmt.Errorf("get %s %s: %w", c.Noun(), id, err)
	}
	return conv(doc), nil
}

func (r *Repository) GetSale(ctx context.Context, id string) (core.Sale, error) {
	return get(ctx, r, core.CollectionSales, id, saleDoc.record)
}

func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return get(ctx, r, core.CollectionExpenses, id, expenseDoc.record)
}

func (r *Repository) GetOrder(ctx context.Context, id string) (core.TailoringOrder, error) {
	return get(ctx, r, core.CollectionOrders, id, orderDoc.record)
}

func (r *Repository) GetDesign(ctx context.Context, id string) (core.Design, error) {
	return get(ctx, r, core.CollectionDesigns, id, designDoc.record)
}

func (r *Repository) PendingSync(ctx context.Context, c core.Collection, limit int) ([]string, error) {
	fo := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"_id": 1})
	cur, err := r.coll(c).Find(ctx, bson.M{"syncedAt": nil}, fo)
	if err != nil {
		return nil, fmt.Errorf("pending sync %s: %w", c, err)
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pending %s: %w", c, err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	return ids, nil
}

func (r *Repository) MarkSynced(ctx context.Context, c core.Collection, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll(c).UpdateByID(ctx, oid, bson.M{"$set": bson.M{"syncedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("mark synced %s/%s: %w", c, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark synced %s/%s: %w", c, id, storage.ErrNotFound)
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: id %q", storage.ErrNotFound, id)
	}
	return oid, nil
}
