package mongodb

import (
	"go.mongodb.org/mongo-driver/mongo"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func (db *DB) GetDatabase() *mongo.Database {
	return db.Database
}
