package tester

import (
	"context"
	"fmt"

	"github.com/ory/dockertest/v3"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DockerEnv holds the endpoints of the containers started for the
// integration suite.
type DockerEnv struct {
	PostgresDSN string
	RedisAddr   string
}

// SetupDocker starts the postgres and redis containers used by the
// integration suite and waits until both accept connections. The returned
// function purges them.
func SetupDocker() (*DockerEnv, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		logrus.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		logrus.Fatalf("Could not connect to Docker: %s", err)
	}

	// run database
	db, err := pool.Run("postgres", "16", []string{
		"POSTGRES_USER=inkpost",
		"POSTGRES_PASSWORD=inkpost",
		"POSTGRES_DB=inkpost",
	})
	if err != nil {
		logrus.Fatalf("Could not start resource: %s", err)
	}

	// run redis for the version and presence caches
	cache, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7",
		ExposedPorts: []string{
			"6379",
		},
	})
	if err != nil {
		logrus.Fatalf("Could not start resource: %s", err)
	}

	env := &DockerEnv{
		PostgresDSN: fmt.Sprintf(
			"host=localhost user=inkpost password=inkpost dbname=inkpost port=%s sslmode=disable",
			db.GetPort("5432/tcp")),
		RedisAddr: "localhost:" + cache.GetPort("6379/tcp"),
	}

	if err := pool.Retry(func() error {
		_, err := gorm.Open(postgres.Open(env.PostgresDSN), &gorm.Config{})
		return err
	}); err != nil {
		logrus.Fatalf("Could not connect to postgres: %s", err)
	}

	if err := pool.Retry(func() error {
		client := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
		defer client.Close()
		return client.Ping(context.Background()).Err()
	}); err != nil {
		logrus.Fatalf("Could not connect to redis: %s", err)
	}

	purge := func() {
		if err := pool.Purge(db); err != nil {
			logrus.Fatalf("Could not purge resource: %s", err)
		}

		if err := pool.Purge(cache); err != nil {
			logrus.Fatalf("Could not purge resource: %s", err)
		}
	}

	return env, purge, nil
}
