package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"public_id",
			"vehicle",
			"window",
			"customer",
			"status",
			"financial",
			"reminder_sent",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"public_id": bson.M{
				"bsonType": "string",
				"pattern":  "^RH[0-9]{6}-[0-9]{3,}$",
			},

			"vehicle": bson.M{
				"bsonType": "object",
				"required": []string{"vehicle_type", "vehicle_id"},
				"properties": bson.M{
					"vehicle_type": bson.M{
						"bsonType": "string",
						"enum":     []string{"bike", "car"},
					},
					"vehicle_id": bson.M{
						"bsonType": "string",
					},
				},
			},

			"window": bson.M{
				"bsonType": "object",
				"required": []string{"date", "start_time", "duration_hours"},
				"properties": bson.M{
					"date": bson.M{
						"bsonType": "string",
						"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
					},
					"start_time": bson.M{
						"bsonType": "string",
						"pattern":  "^[0-9]{2}:[0-9]{2}$",
					},
					"duration_hours": bson.M{
						"bsonType": "int",
						"minimum":  1,
						"maximum":  72,
					},
				},
			},

			"customer": bson.M{
				"bsonType": "object",
				"required": []string{"name", "phone"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"phone": bson.M{
						"bsonType": "string",
					},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"rejected",
					"cancelled",
				},
			},

			"financial": bson.M{
				"bsonType": "object",
				"required": []string{"total_amount", "advance_payment", "remaining_amount"},
			},

			"reminder_sent": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
