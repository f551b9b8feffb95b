package mongo

import (
	"testing"
	"time"

	"boutique/internal/core"
	"boutique/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDesignDocKeepsOptionalEndDate(t *testing.T) {
	open := core.Design{
		Name:      "Lehenga",
		StartDate: core.NewDate(2024, 2, 1),
		TotalCost: core.Rupees(2300),
		Status:    core.DesignDesigning,
	}
	doc := newDesignDoc(open)
	assert.Nil(t, doc.EndDate)

	doc.ID = primitive.NewObjectID()
	got := doc.record()
	assert.True(t, got.EndDate.IsEmpty())
	assert.Equal(t, doc.ID.Hex(), got.ID)
	assert.Equal(t, core.Rupees(2300), got.TotalCost)

	open.EndDate = core.NewDate(2024, 3, 1)
	doc = newDesignDoc(open)
	require.NotNil(t, doc.EndDate)
	assert.Equal(t, core.NewDate(2024, 3, 1), doc.record().EndDate)
}

func TestDocumentsSurviveBSON(t *testing.T) {
	in := core.TailoringOrder{
		Date:         core.NewDate(2024, 4, 1),
		BillNo:       "B-1",
		Customer:     "Asha",
		Phone:        "9876543210",
		Type:         "Blouse",
		TotalCost:    core.Rupees(800),
		Advance:      core.Rupees(300),
		Balance:      core.Rupees(500),
		DeliveryDate: core.NewDate(2024, 4, 20),
		PaymentMode:  core.Card,
		Status:       core.ToDo,
	}
	doc := newOrderDoc(in)
	doc.ID = primitive.NewObjectID()

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var back orderDoc
	require.NoError(t, bson.Unmarshal(raw, &back))
	got := back.record()
	in.ID = doc.ID.Hex()
	assert.Equal(t, in, got)
}

func TestDayNormalisesToUTCDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	assert.Equal(t, core.NewDate(2024, 1, 31), day(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).In(ist)))
}

func TestOrderUpdateDocResetsSync(t *testing.T) {
	status := core.Completed
	doc := orderUpdateDoc(core.OrderUpdate{Status: &status})
	set := doc["$set"].(bson.M)
	assert.Equal(t, "Completed", set["status"])
	assert.Contains(t, set, "syncedAt")
	assert.NotContains(t, set, "advance")
}

func TestOrderFilterPinsAdvance(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"_id": oid}, orderFilter(oid, core.OrderUpdate{}))

	from := core.Rupees(60)
	assert.Equal(t, bson.M{"_id": oid, "advance": int64(6000)}, orderFilter(oid, core.OrderUpdate{IfAdvance: &from}))
}

func TestFindOptionsRejectsUnknownField(t *testing.T) {
	_, err := findOptions(core.CollectionSales, storage.ListOptions{OrderBy: "items"})
	assert.ErrorIs(t, err, storage.ErrInvalidOrderBy)

	fo, err := findOptions(core.CollectionOrders, storage.DefaultListOptions(core.CollectionOrders))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "deliveryDate", Value: -1}, {Key: "_id", Value: -1}}, fo.Sort)
}

func TestObjectIDRejectsMalformed(t *testing.T) {
	_, err := objectID("not-hex")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
