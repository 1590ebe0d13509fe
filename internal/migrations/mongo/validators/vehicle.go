package validators

import "go.mongodb.org/mongo-driver/bson"

// VehicleValidator applies to both the Bikes and Cars collections.
var VehicleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"price_per_hour",
			"available",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"price_per_hour": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"available": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
