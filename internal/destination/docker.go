package destination

import (
	"bytes"
	"os"

	"github.com/brinkdb/snapctl/internal/docker"
	"github.com/brinkdb/snapctl/internal/errs"
)

const (
	defaultPostgresImage    = "postgres"
	defaultPostgresPort     = 5432
	defaultPostgresUser     = "postgres"
	defaultPostgresPassword = "password"
	defaultPostgresDB       = "postgres"
)

// PostgresDocker restores into a disposable postgres container started on
// the given tag/host port, used by `dump restore local`. The container is
// left running after a restore so the caller can connect to it; the
// caller is responsible for eventually removing it.
type PostgresDocker struct {
	image     docker.Image
	options   docker.ContainerOptions
	container *docker.Container
}

// NewPostgresDocker configures (without starting) a throwaway postgres
// container exposing hostPort.
func NewPostgresDocker(tag string, hostPort int) *PostgresDocker {
	return &PostgresDocker{
		image:   docker.Image{Name: defaultPostgresImage, Tag: tag},
		options: docker.ContainerOptions{HostPort: hostPort, ContainerPort: defaultPostgresPort},
	}
}

func (p *PostgresDocker) Init() error {
	if err := docker.DaemonIsRunning(); err != nil {
		return err
	}

	container, err := docker.Run(p.image, p.options, []string{
		"-e", "POSTGRES_PASSWORD=" + defaultPostgresPassword,
		"-e", "POSTGRES_USER=" + defaultPostgresUser,
	}, nil)
	if err != nil {
		return err
	}
	p.container = container
	return nil
}

func (p *PostgresDocker) Write(data []byte) error {
	if p.container == nil {
		return errs.WrapIO("postgres docker container not started", os.ErrInvalid)
	}

	cmd := "PGPASSWORD=" + defaultPostgresPassword + " psql --username " + defaultPostgresUser + " " + defaultPostgresDB
	execCmd, err := p.container.Exec(cmd)
	if err != nil {
		return err
	}

	execCmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		return errs.WrapIO("restoring into postgres container: "+stderr.String(), err)
	}
	return nil
}

// Container exposes the running container so the caller can print
// connection info or remove it once done.
func (p *PostgresDocker) Container() *docker.Container {
	return p.container
}
