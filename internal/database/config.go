package database

type Config struct {
	FileName string `envconfig:"RANGEQ_DB_FILE" default:"rangeq.db"`
}
