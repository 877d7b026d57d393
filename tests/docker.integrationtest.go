//go:build integration

package tests

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var (
	ErrDockerFailure       = errors.New("docker failure")
	ErrMissingInstanceName = errors.New("missing docker instance name")
)

// RetryFunc is the function you use to connect to the docker container.
// Return a func that will be used by the dockertest.Pool for the actual connection,
// it will be called multiple times in attempts to connect to the container, while that's still starting up.
type RetryFunc func(resource *dockertest.Resource) func() error

// running counts the users of each started container, so a shared container is only purged by its last user.
//
//nolint:gochecknoglobals // SharedDockerContainer is a singleton so multiple tests share a docker container.
var running = &containers{
	mu:        sync.Mutex{},
	instances: map[string]*container{},
}

type containers struct {
	mu        sync.Mutex
	instances map[string]*container
}

type container struct {
	pool     *dockertest.Pool
	resource *dockertest.Resource
	users    int
}

func (c *containers) add(name string, pool *dockertest.Pool, resource *dockertest.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instances[name] = &container{pool: pool, resource: resource, users: 1}
}

// join returns true, if the container exists and got one more user.
func (c *containers) join(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if instance, ok := c.instances[name]; ok {
		instance.users++

		return true
	}

	return false
}

func (c *containers) cleanup(name string) func() error {
	return func() error {
		c.mu.Lock()
		defer c.mu.Unlock()

		instance, ok := c.instances[name]
		if !ok {
			return nil
		}

		instance.users--
		if instance.users > 0 {
			return nil // don't stop container, as some tests are still using it
		}

		delete(c.instances, name)

		if err := instance.pool.Purge(instance.resource); err != nil {
			return fmt.Errorf("%w: could not purge resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
		}

		return nil
	}
}

// SharedDockerContainer returns a cleanup function for a fully running container.
// Subsequent calls with the same runOptions.Name return a cleanup function for the same container,
// so that a lot of integration tests running in parallel do not spin up multiple containers.
// The container is removed after the last cleanup function is called.
func SharedDockerContainer(runOptions *dockertest.RunOptions, retryFunc RetryFunc) (func() error, error) {
	if runOptions == nil || runOptions.Name == "" {
		return nil, ErrMissingInstanceName
	}

	name := "/" + runOptions.Name // docker prefixes container names
	if running.join(name) {
		return running.cleanup(name), nil
	}

	return StartDockerContainer(runOptions, retryFunc)
}

// StartDockerContainer connects to the local docker service and starts a container for integration testing.
// Configure the container to start by setting the dockertest.RunOptions, the most important ones:
// - Repository:	is the dockerhub repo to pull, e.g. "postgres"
// - Tag:			is the tag to pull, e.g. 16
// - Env:			are the env variables to set for the container
// For more options check out the RunOptions struct.
func StartDockerContainer(runOptions *dockertest.RunOptions, retryFunc RetryFunc) (func() error, error) {
	if runOptions == nil {
		return nil, fmt.Errorf("%w: invalid run options", ErrDockerFailure)
	}

	if retryFunc == nil {
		return nil, fmt.Errorf("%w: invalid retry func", ErrDockerFailure)
	}

	pool, err := dockertest.NewPool("") // uses a sensible default on windows (tcp/http) and linux/osx (socket)
	if err != nil {
		return nil, fmt.Errorf("%w: could not create new pool: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: could not connect to docker: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	resource, err := pool.RunWithOptions(
		runOptions,
		func(config *docker.HostConfig) {
			config.AutoRemove = true // stopped containers go away by themselves
			config.RestartPolicy = docker.RestartPolicy{Name: "no", MaximumRetryCount: 0}
		})
	if err != nil {
		return nil, fmt.Errorf("%w: could not start resource: %v", ErrDockerFailure, err) //nolint:errorlint // prevent err in api
	}

	const dockerTimeout = 120
	_ = resource.Expire(dockerTimeout) // hard kill the container, if a test run hangs

	// the application in the container might not be ready to accept connections yet
	pool.MaxWait = dockerTimeout * time.Second
	if err := pool.Retry(retryFunc(resource)); err != nil {
		_ = pool.Purge(resource)

		return nil, fmt.Errorf("%w: could not connect to container: %v", ErrDockerFailure, err) //nolint:errorlint,lll // prevent err in api
	}

	running.add(resource.Container.Name, pool, resource)

	return running.cleanup(resource.Container.Name), nil
}
