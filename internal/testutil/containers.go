// containers.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ContainerOptions selects the images started by StartContainers. Empty fields fall back
// to the DB_TYPE, DB_IMAGE, REDIS_IMAGE and AUTHZ_IMAGE environment variables.
type ContainerOptions struct {
	DBType     string // postgres or mysql/mariadb
	DBImage    string
	RedisImage string
	// AuthzImage starts an Authorizer container when set
	AuthzImage string
}

// Containers is a running set of backing services
type Containers struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Redis      testcontainers.Container
	Authorizer testcontainers.Container

	dbType string
	dbPort nat.Port
	env    map[string]string
}

const (
	containerDBName     = "haven"
	containerDBUser     = "haven"
	containerDBPassword = "haven-password"
	containerDBRootPass = "root-password"
	containerAuthzDB    = "authorizer"
)

func (o *ContainerOptions) defaults() {
	if o.DBType == "" {
		o.DBType = getenv("DB_TYPE", "postgres")
	}
	if o.DBType == "mariadb" {
		o.DBType = "mysql"
	}
	if o.DBImage == "" {
		def := "postgres:16-alpine"
		if o.DBType == "mysql" {
			def = "mariadb:11"
		}
		o.DBImage = getenv("DB_IMAGE", def)
	}
	if o.RedisImage == "" {
		o.RedisImage = getenv("REDIS_IMAGE", "redis:7-alpine")
	}
	if o.AuthzImage == "" {
		o.AuthzImage = os.Getenv("AUTHZ_IMAGE")
	}
}

// Terminate stops every started container and removes the network
func (tc *Containers) Terminate(t *testing.T) {
	ctx := context.Background()
	for name, c := range map[string]testcontainers.Container{
		"Authorizer": tc.Authorizer,
		"Redis":      tc.Redis,
		"Database":   tc.DB,
	} {
		if c == nil {
			continue
		}
		if err := c.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate %s: %v", name, err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Env returns the environment a Haven process on the host needs to reach the containers
func (tc *Containers) Env() map[string]string {
	return tc.env
}

// StartContainers starts a database and Redis, plus Authorizer when configured. With a
// non-nil t, failures end the test and the containers are terminated on cleanup.
func StartContainers(t *testing.T, opts ContainerOptions) (*Containers, error) {
	ctx := context.Background()
	opts.defaults()
	tc := &Containers{dbType: opts.DBType, env: map[string]string{}}
	if t != nil {
		t.Cleanup(func() { tc.Terminate(t) })
	}

	fail := func(err error, msg string) (*Containers, error) {
		if t == nil {
			tc.Terminate(nil)
		}
		err = fmt.Errorf("%s: %w", msg, err)
		if t != nil {
			t.Fatal(err)
		}
		return nil, err
	}

	nw, err := network.New(ctx)
	if err != nil {
		return fail(err, "Failed to create network")
	}
	tc.Network = nw
	networkName := nw.Name

	// Database
	dbPortNumber := "5432"
	if opts.DBType == "mysql" {
		dbPortNumber = "3306"
	}
	tc.dbPort, err = nat.NewPort("tcp", dbPortNumber)
	if err != nil {
		return fail(err, "Failed to create DB port")
	}
	tc.DB, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          opts.DBImage,
			ExposedPorts:   []string{string(tc.dbPort)},
			Env:            dbInitEnv(opts.DBType),
			WaitingFor:     wait.ForListeningPort(tc.dbPort).WithStartupTimeout(90 * time.Second),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"db"}},
		},
		Started: true,
	})
	if err != nil {
		return fail(err, "Failed to start Database")
	}

	dbHost, err := tc.DB.Host(ctx)
	if err != nil {
		return fail(err, "Failed to get Database host")
	}
	dbPort, err := tc.DB.MappedPort(ctx, tc.dbPort)
	if err != nil {
		return fail(err, "Failed to get Database port")
	}
	tc.env["DB_TYPE"] = opts.DBType
	tc.env["DB_HOST"] = dbHost
	tc.env["DB_PORT"] = dbPort.Port()
	tc.env["DB_DATABASE"] = containerDBName
	tc.env["DB_USER"] = containerDBUser
	tc.env["DB_PASSWORD"] = containerDBPassword
	tc.env["DB_SSLMODE"] = "disable"

	if opts.DBType == "mysql" {
		if err := initMySQL(dbHost, dbPort); err != nil {
			return fail(err, "Failed to initialize MariaDB")
		}
	}

	// Redis
	redisPort, _ := nat.NewPort("tcp", "6379")
	tc.Redis, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          opts.RedisImage,
			ExposedPorts:   []string{string(redisPort)},
			WaitingFor:     wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"redis"}},
		},
		Started: true,
	})
	if err != nil {
		return fail(err, "Failed to start Redis")
	}
	redisHost, _ := tc.Redis.Host(ctx)
	redisMapped, err := tc.Redis.MappedPort(ctx, redisPort)
	if err != nil {
		return fail(err, "Failed to get Redis port")
	}
	tc.env["REDIS_URL"] = fmt.Sprintf("redis://%s:%s/0", redisHost, redisMapped.Port())

	// Authorizer
	if opts.AuthzImage != "" {
		authzPort, _ := nat.NewPort("tcp", getenv("AUTHZ_PORT", "8080"))
		clientID := getenv("AUTHZ_CLIENT_ID", "haven-test-client")
		tc.Authorizer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        opts.AuthzImage,
				ExposedPorts: []string{string(authzPort)},
				Env: map[string]string{
					"ENV":           "production",
					"CLIENT_ID":     clientID,
					"PORT":          authzPort.Port(),
					"DATABASE_TYPE": opts.DBType,
					"DATABASE_NAME": containerAuthzDB,
					"DATABASE_URL":  authorizerDatabaseURL(opts.DBType),
					"ADMIN_SECRET":  getenv("AUTHZ_ADMIN_SECRET", "admin-secret"),
					"ROLES":         "admin,therapist,user",
					"DEFAULT_ROLES": "user",
				},
				WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
				Networks:   []string{networkName},
			},
			Started: true,
		})
		if err != nil {
			return fail(err, "Failed to start Authorizer")
		}
		authzHost, _ := tc.Authorizer.Host(ctx)
		authzMapped, err := tc.Authorizer.MappedPort(ctx, authzPort)
		if err != nil {
			return fail(err, "Failed to get Authorizer port")
		}
		tc.env["AUTHZ_URL"] = fmt.Sprintf("http://%s:%s", authzHost, authzMapped.Port())
		tc.env["AUTHZ_CLIENT_ID"] = clientID
	}

	logMessage(t, "Test containers started: %s database, redis at %s", opts.DBType, tc.env["REDIS_URL"])
	return tc, nil
}

func dbInitEnv(dbType string) map[string]string {
	if dbType == "mysql" {
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": containerDBRootPass,
			"MYSQL_DATABASE":      containerDBName,
			"MYSQL_USER":          containerDBUser,
			"MYSQL_PASSWORD":      containerDBPassword,
		}
	}
	return map[string]string{
		"POSTGRES_DB":       containerDBName,
		"POSTGRES_USER":     containerDBUser,
		"POSTGRES_PASSWORD": containerDBPassword,
	}
}

func authorizerDatabaseURL(dbType string) string {
	if dbType == "mysql" {
		return fmt.Sprintf("root:%s@tcp(db:3306)/%s", containerDBRootPass, containerAuthzDB)
	}
	return fmt.Sprintf("postgres://%s:%s@db:5432/%s?sslmode=disable", containerDBUser, containerDBPassword, containerDBName)
}

// initMySQL waits for the server to accept logins and creates the Authorizer database
func initMySQL(host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", containerDBRootPass, host, port.Port()))
	if err != nil {
		return err
	}
	defer db.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
	}

	if _, err := db.Exec("CREATE DATABASE IF NOT EXISTS " + containerAuthzDB); err != nil {
		return fmt.Errorf("create %s: %w", containerAuthzDB, err)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func logMessage(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
