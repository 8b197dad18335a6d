package validators

import "go.mongodb.org/mongo-driver/bson"

var hhmm = bson.M{
	"bsonType": "string",
	"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$|^24:00$`,
}

var isoDate = bson.M{
	"bsonType": "string",
	"pattern":  `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`,
}

var AvailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"master_id", "weekly", "days_off", "blocks"},
		"additionalProperties": true,

		"properties": bson.M{
			"master_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"weekly": bson.M{
				"bsonType": "object",
				"patternProperties": bson.M{
					"^[0-6]$": bson.M{
						"bsonType": "array",
						"maxItems": 48,
						"items": bson.M{
							"bsonType":   "object",
							"required":   []string{"start", "end"},
							"properties": bson.M{"start": hhmm, "end": hhmm},
						},
					},
				},
				"additionalProperties": false,
			},

			"days_off": bson.M{
				"bsonType": "array",
				"maxItems": 1000,
				"items":    isoDate,
			},

			"blocks": bson.M{
				"bsonType": "array",
				"maxItems": 1000,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"date", "start", "end"},
					"properties": bson.M{
						"date":  isoDate,
						"start": hhmm,
						"end":   hhmm,
					},
				},
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
