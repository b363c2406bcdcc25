// Package config loads typed configuration structs from environment variables
// using github.com/caarlos0/env struct tags, with optional .env files read by
// github.com/joho/godotenv.
//
// Load caches one value per struct type so infrastructure packages can each
// own a Config (pg.Config, redis.Config, httpserver.Config) and load it where
// they are wired without re-parsing the environment. Parse bypasses the cache
// and accepts explicit env files, which suits tests and one-off tools.
package config
