// Package docker gives the restore-local command a throwaway database
// container: start an image on a host port, run a restore against it
// through docker exec, and tear it down afterward.
package docker

import (
	"bytes"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/brinkdb/snapctl/internal/errs"
)

const BinaryName = "docker"

// Image names a container image and tag to run.
type Image struct {
	Name string
	Tag  string
}

func (i Image) String() string { return i.Name + ":" + i.Tag }

// ContainerOptions controls the host/container port mapping for a run.
type ContainerOptions struct {
	HostPort      int
	ContainerPort int
}

// Container is a running container started via Run.
type Container struct {
	ID string
}

// Run starts image with the given extra `docker run` args (e.g. -e
// KEY=VALUE) and an optional entrypoint command, returning the new
// container's ID.
func Run(image Image, opts ContainerOptions, args []string, command []string) (*Container, error) {
	portMapping := strconv.Itoa(opts.HostPort) + ":" + strconv.Itoa(opts.ContainerPort)

	runArgs := append([]string{"run", "-p", portMapping}, args...)
	runArgs = append(runArgs, "-d", image.String())
	runArgs = append(runArgs, command...)

	cmd := exec.Command(BinaryName, runArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errs.WrapIO("docker run failed: "+msg, err)
	}

	return &Container{ID: strings.TrimSpace(stdout.String())}, nil
}

// Stop stops the container, leaving it for later inspection.
func (c *Container) Stop() error {
	cmd := exec.Command(BinaryName, "stop", c.shortID())
	cmd.Stdout = io.Discard
	if err := cmd.Run(); err != nil {
		return errs.WrapIO("docker stop failed for "+c.shortID(), err)
	}
	return nil
}

// Remove force-removes the container.
func (c *Container) Remove() error {
	cmd := exec.Command(BinaryName, "rm", "-f", c.shortID())
	cmd.Stdout = io.Discard
	if err := cmd.Run(); err != nil {
		return errs.WrapIO("docker rm failed for "+c.shortID(), err)
	}
	return nil
}

// Exec builds a `docker exec -i ... /bin/sh -c cmd` command for the
// container and returns it unstarted; the caller wires its stdin/stdout
// and runs it.
func (c *Container) Exec(cmd string) (*exec.Cmd, error) {
	execCmd := exec.Command(BinaryName, "exec", "-i", c.shortID(), "/bin/sh", "-c", cmd)
	return execCmd, nil
}

func (c *Container) shortID() string {
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// DaemonIsRunning checks that the docker daemon answers `docker ps`.
func DaemonIsRunning() error {
	cmd := exec.Command(BinaryName, "ps")
	cmd.Stdout = io.Discard
	if err := cmd.Run(); err != nil {
		return errs.WrapIO("cannot connect to the Docker daemon", err)
	}
	return nil
}
