package reports

import (
	"testing"
	"time"

	"github.com/gogf/gf/v2/container/gmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBareMongoStore() *MongoStore {
	return &MongoStore{models: gmap.NewStrAnyMap(true)}
}

func TestConditionsToBson(t *testing.T) {
	assert.Equal(t, bson.M{}, conditionsToBson(nil))

	filter := conditionsToBson([]Condition{
		{Field: "age", Operator: OpGreaterOrEqual, Value: int64(18)},
		{Field: "name", Operator: OpContainsFold, Value: "a.b"},
		{Field: "id", Operator: OpEquals, Value: "x"},
		{Field: "dept", Operator: OpUnset},
		{Field: "dept", Operator: Operator("bogus")},
	})

	and, ok := filter["$and"].([]bson.M)
	require.True(t, ok)
	require.Len(t, and, 4)
	assert.Equal(t, bson.M{"age": bson.M{"$gte": int64(18)}}, and[0])
	// regex metacharacters in the needle are escaped
	assert.Equal(t, bson.M{"name": bson.M{"$regex": `a\.b`, "$options": "i"}}, and[1])
	assert.Equal(t, bson.M{"_id": "x"}, and[2])
	assert.Equal(t, bson.M{"dept": nil}, and[3])
}

func TestSortToBson(t *testing.T) {
	result := sortToBson([]SortKey{
		{Field: "name"},
		{Field: "id", Desc: true},
	})
	assert.Equal(t, bson.D{
		{Key: "name", Value: 1},
		{Key: "_id", Value: -1},
	}, result)
}

func TestConvertMongoValue(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), convertMongoValue(oid))

	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	got := convertMongoValue(primitive.NewDateTimeFromTime(ts))
	require.IsType(t, time.Time{}, got)
	assert.True(t, got.(time.Time).Equal(ts))

	arr := convertMongoValue(primitive.A{oid, "x"})
	assert.Equal(t, []any{oid.Hex(), "x"}, arr)

	assert.Equal(t, "plain", convertMongoValue("plain"))
	assert.Nil(t, convertMongoValue(nil))
}

func TestLookupStages(t *testing.T) {
	store := newBareMongoStore()
	m := &Model{
		Name: "contact",
		Fields: []*FieldMeta{
			{Name: "name", Type: Text},
			{Name: "company", Type: Relation, Relation: "company"},
		},
	}

	stages := store.lookupStages(m, []string{"name", "company"})
	require.Len(t, stages, 2)
	lookup := stages[0]["$lookup"].(bson.M)
	assert.Equal(t, "company", lookup["from"])
	assert.Equal(t, "company", lookup["localField"])
	assert.Equal(t, "company__doc", lookup["as"])
	unwind := stages[1]["$unwind"].(bson.M)
	assert.Equal(t, "$company__doc", unwind["path"])
}

func TestConvertDoc(t *testing.T) {
	store := newBareMongoStore()
	m := &Model{
		Name: "contact",
		Fields: []*FieldMeta{
			{Name: "name", Type: Text},
			{Name: "company", Type: Relation, Relation: "company"},
		},
	}

	oid := primitive.NewObjectID()
	companyId := primitive.NewObjectID()
	doc := bson.M{
		"_id":          oid,
		"name":         "Alpha",
		"company":      companyId,
		"company__doc": bson.M{"_id": companyId, "name": "Acme"},
	}

	row, id := store.convertDoc(m, doc, []string{"id", "name", "company"})
	assert.Equal(t, oid.Hex(), id)
	assert.Equal(t, oid.Hex(), row["id"])
	assert.Equal(t, "Alpha", row["name"])
	assert.Equal(t, []any{companyId.Hex(), "Acme"}, row["company"])
}

func TestConvertDocMissingRelation(t *testing.T) {
	store := newBareMongoStore()
	m := &Model{
		Name: "contact",
		Fields: []*FieldMeta{
			{Name: "company", Type: Relation, Relation: "company"},
		},
	}

	row, _ := store.convertDoc(m, bson.M{"_id": primitive.NewObjectID()}, []string{"company"})
	assert.Nil(t, row["company"])
}
