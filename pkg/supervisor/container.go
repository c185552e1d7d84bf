package supervisor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

// ContainerLauncher starts the engine through the Docker API with
// testcontainers-go.
type ContainerLauncher struct{}

// NewContainerLauncher creates a ContainerLauncher.
func NewContainerLauncher() *ContainerLauncher {
	return &ContainerLauncher{}
}

// Launch creates and starts the engine container.
func (l *ContainerLauncher) Launch(ctx context.Context, spec LaunchSpec) (*LaunchResult, error) {
	engine, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: containerRequest(spec),
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start engine container %s: %w", spec.Image, err)
	}

	return &LaunchResult{ContainerID: engine.GetContainerID()}, nil
}

func containerRequest(spec LaunchSpec) testcontainers.ContainerRequest {
	port := nat.Port(enginePort + "/tcp")

	return testcontainers.ContainerRequest{
		Image:        spec.Image,
		ExposedPorts: []string{string(port)},
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.AutoRemove = true
			hc.Binds = append(hc.Binds, spec.HostDir+":"+spec.ContainerDir)
			hc.ExtraHosts = append(hc.ExtraHosts, "host.docker.internal:host-gateway")
			hc.PortBindings = nat.PortMap{
				port: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(spec.Port)}},
			}
		},
	}
}
