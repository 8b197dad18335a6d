package validators

import "go.mongodb.org/mongo-driver/bson"

var ChatValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"booking_id", "participants", "created_at"},
		"properties": bson.M{
			"booking_id": bson.M{"bsonType": "string"},
			"participants": bson.M{
				"bsonType": "array",
				"minItems": 2,
				"maxItems": 2,
				"items":    bson.M{"bsonType": "string"},
			},
			"created_at":      bson.M{"bsonType": "date"},
			"last_message_at": bson.M{"bsonType": "date"},
		},
	},
}

var MessageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"chat_id", "sender_id", "text", "created_at"},
		"properties": bson.M{
			"chat_id":   bson.M{"bsonType": "string"},
			"sender_id": bson.M{"bsonType": "string"},
			"text": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 2000,
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
