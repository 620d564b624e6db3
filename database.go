package reports

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gogf/gf/v2/container/gmap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
)

// MongoStore is the production Store adapter, one collection per model.
// Schema comes from registered model descriptors, mongo itself is
// schemaless. Read resolves relation fields through $lookup so the
// executor receives [id, label] pairs.
type MongoStore struct {
	client   *mongo.Client
	database string
	models   *gmap.StrAnyMap
	collOpts *options.CollectionOptions
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoStore{
		client:   client,
		database: database,
		models:   gmap.NewStrAnyMap(true),
		collOpts: options.Collection().SetReadConcern(readconcern.Majority()),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) AddModel(m *Model) {
	s.models.Set(m.Name, m)
}

func (s *MongoStore) getModel(name string) *Model {
	if v := s.models.Get(name); v != nil {
		return v.(*Model)
	}
	return nil
}

func (s *MongoStore) getCollection(model string) *mongo.Collection {
	return s.client.Database(s.database).Collection(model, s.collOpts)
}

func (s *MongoStore) ListFields(ctx context.Context, model string) ([]*FieldMeta, error) {
	m := s.getModel(model)
	if m == nil {
		return nil, fmt.Errorf("not found model %s", model)
	}
	return m.Fields, nil
}

func (s *MongoStore) Query(ctx context.Context, model string, conditions []Condition, order []SortKey, limit int) ([]string, error) {
	if s.getModel(model) == nil {
		return nil, fmt.Errorf("not found model %s", model)
	}
	findOptions := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(sortToBson(order))
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := s.getCollection(model).Find(ctx, conditionsToBson(conditions), findOptions)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if oid, ok := doc["_id"].(primitive.ObjectID); ok {
			ids = append(ids, oid.Hex())
		}
	}
	return ids, nil
}

func (s *MongoStore) Read(ctx context.Context, model string, ids []string, fields []string) ([]Row, error) {
	m := s.getModel(model)
	if m == nil {
		return nil, fmt.Errorf("not found model %s", model)
	}

	objectIds := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("bad record id %q: %w", id, err)
		}
		objectIds = append(objectIds, oid)
	}

	pipeline := []bson.M{
		{"$match": bson.M{"_id": bson.M{"$in": objectIds}}},
	}
	pipeline = append(pipeline, s.lookupStages(m, fields)...)

	cursor, err := s.getCollection(model).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	byId := make(map[string]Row, len(docs))
	for _, doc := range docs {
		row, id := s.convertDoc(m, doc, fields)
		byId[id] = row
	}

	// $in does not preserve order, reorder by the requested ids
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := byId[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// lookupStages joins every requested relation field against its target
// collection so the label can be read in one round trip.
func (s *MongoStore) lookupStages(m *Model, fields []string) []bson.M {
	var stages []bson.M
	for _, name := range fields {
		meta := m.FindField(name)
		if meta == nil || meta.Type != Relation || meta.Relation == "" {
			continue
		}
		joined := name + "__doc"
		stages = append(stages, bson.M{
			"$lookup": bson.M{
				"from":         meta.Relation,
				"localField":   name,
				"foreignField": "_id",
				"as":           joined,
			},
		})
		stages = append(stages, bson.M{
			"$unwind": bson.M{
				"path":                       "$" + joined,
				"preserveNullAndEmptyArrays": true,
			},
		})
	}
	return stages
}

// convertDoc maps a raw document onto a row keyed by the requested field
// names: object ids to hex, mongo datetimes to time.Time, relation fields
// to [id, label] pairs.
func (s *MongoStore) convertDoc(m *Model, doc bson.M, fields []string) (Row, string) {
	id := ""
	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	row := Row{}
	for _, name := range fields {
		if name == "id" {
			row["id"] = id
			continue
		}
		meta := m.FindField(name)
		if meta != nil && meta.Type == Relation && meta.Relation != "" {
			row[name] = s.relationPair(meta, doc, name)
			continue
		}
		row[name] = convertMongoValue(doc[name])
	}
	return row, id
}

func (s *MongoStore) relationPair(meta *FieldMeta, doc bson.M, name string) any {
	joined, ok := doc[name+"__doc"].(bson.M)
	if !ok || len(joined) == 0 {
		return nil
	}
	pairId := ""
	if oid, ok := joined["_id"].(primitive.ObjectID); ok {
		pairId = oid.Hex()
	}
	labelField := "name"
	if target := s.getModel(meta.Relation); target != nil {
		labelField = target.labelField()
	}
	label := convertMongoValue(joined[labelField])
	return []any{pairId, label}
}

func convertMongoValue(v any) any {
	switch n := v.(type) {
	case primitive.DateTime:
		return n.Time()
	case primitive.ObjectID:
		return n.Hex()
	case primitive.A:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = convertMongoValue(item)
		}
		return out
	default:
		return v
	}
}

func conditionsToBson(conditions []Condition) bson.M {
	filter := bson.M{}
	and := make([]bson.M, 0, len(conditions))
	for _, cond := range conditions {
		field := cond.Field
		if field == "id" {
			field = "_id"
		}
		var clause bson.M
		switch cond.Operator {
		case OpEquals:
			clause = bson.M{field: cond.Value}
		case OpNotEquals:
			clause = bson.M{field: bson.M{"$ne": cond.Value}}
		case OpGreater:
			clause = bson.M{field: bson.M{"$gt": cond.Value}}
		case OpGreaterOrEqual:
			clause = bson.M{field: bson.M{"$gte": cond.Value}}
		case OpLess:
			clause = bson.M{field: bson.M{"$lt": cond.Value}}
		case OpLessOrEqual:
			clause = bson.M{field: bson.M{"$lte": cond.Value}}
		case OpContains:
			clause = bson.M{field: bson.M{"$regex": regexp.QuoteMeta(fmt.Sprint(cond.Value))}}
		case OpContainsFold:
			clause = bson.M{field: bson.M{"$regex": regexp.QuoteMeta(fmt.Sprint(cond.Value)), "$options": "i"}}
		case OpIn:
			clause = bson.M{field: bson.M{"$in": cond.Value}}
		case OpNotIn:
			clause = bson.M{field: bson.M{"$nin": cond.Value}}
		case OpUnset:
			clause = bson.M{field: nil}
		default:
			continue
		}
		and = append(and, clause)
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func sortToBson(order []SortKey) bson.D {
	result := bson.D{}
	for _, key := range order {
		field := key.Field
		if field == "id" {
			field = "_id"
		}
		direction := 1
		if key.Desc {
			direction = -1
		}
		result = append(result, bson.E{Key: field, Value: direction})
	}
	return result
}
