package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_AllHaveValidatorsAndIndexes(t *testing.T) {
	seen := map[string]bool{}
	for _, coll := range Collections() {
		if seen[coll.Name] {
			t.Errorf("collection %s listed twice", coll.Name)
		}
		seen[coll.Name] = true

		if _, ok := coll.Validator["$jsonSchema"]; !ok {
			t.Errorf("%s: missing $jsonSchema validator", coll.Name)
		}
		if len(coll.Indexes) == 0 {
			t.Errorf("%s: no indexes", coll.Name)
		}
	}

	for _, name := range []string{"Availability_profiles", "Bookings", "Booking_locks", "Chats", "Messages"} {
		if !seen[name] {
			t.Errorf("collection %s not migrated", name)
		}
	}
}

func firstKey(keys any) string {
	d, ok := keys.(bson.D)
	if !ok || len(d) == 0 {
		return ""
	}
	return d[0].Key
}

func TestCollections_IndexGuarantees(t *testing.T) {
	unique := map[string]string{
		"Availability_profiles": "master_id",
		"Chats":                 "booking_id",
	}

	for _, coll := range Collections() {
		if field, ok := unique[coll.Name]; ok {
			found := false
			for _, idx := range coll.Indexes {
				if firstKey(idx.Keys) == field && idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
					found = true
				}
			}
			if !found {
				t.Errorf("%s: expected unique index on %s", coll.Name, field)
			}
		}

		if coll.Name == "Booking_locks" {
			idx := coll.Indexes[0]
			if firstKey(idx.Keys) != "expires_at" || idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
				t.Errorf("Booking_locks: expected TTL index on expires_at")
			}
		}
	}
}
