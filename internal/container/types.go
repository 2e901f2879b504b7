// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// PortProtocolTCP is the TCP transport protocol for port mappings.
	PortProtocolTCP PortProtocol = "tcp"
	// PortProtocolUDP is the UDP transport protocol for port mappings.
	PortProtocolUDP PortProtocol = "udp"

	// SELinuxLabelNone means no SELinux label is applied to a volume mount.
	SELinuxLabelNone SELinuxLabel = ""
	// SELinuxLabelShared allows sharing the volume between containers.
	SELinuxLabelShared SELinuxLabel = "z"
	// SELinuxLabelPrivate restricts the volume to a single container.
	SELinuxLabelPrivate SELinuxLabel = "Z"
)

var (
	// ErrInvalidPortProtocol is the sentinel error wrapped by InvalidPortProtocolError.
	ErrInvalidPortProtocol = errors.New("invalid port protocol")

	// ErrInvalidNetworkPort is the sentinel error wrapped by InvalidNetworkPortError.
	ErrInvalidNetworkPort = errors.New("invalid network port")

	// ErrInvalidPortMapping is the sentinel error wrapped by InvalidPortMappingError.
	ErrInvalidPortMapping = errors.New("invalid port mapping")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")
)

type (
	// PortProtocol is a transport protocol for port mappings.
	// The zero value ("") means "default to tcp".
	PortProtocol string

	// InvalidPortProtocolError is returned for unrecognized protocols.
	InvalidPortProtocolError struct {
		Value PortProtocol
	}

	// NetworkPort is a TCP/UDP port number. A valid port is non-zero.
	NetworkPort uint16

	// InvalidNetworkPortError is returned when a NetworkPort is zero.
	InvalidNetworkPortError struct {
		Value NetworkPort
	}

	// PortMapping maps a host port to a container port.
	PortMapping struct {
		HostPort      NetworkPort
		ContainerPort NetworkPort
		Protocol      PortProtocol
	}

	// InvalidPortMappingError is returned when a PortMapping has invalid
	// fields; it wraps the individual field errors.
	InvalidPortMappingError struct {
		Value     PortMapping
		FieldErrs []error
	}

	// VolumeMount is a host path bind-mounted into a container.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
		SELinux       SELinuxLabel
	}

	// InvalidVolumeMountError is returned when a VolumeMount has invalid
	// fields; it wraps the individual field errors.
	InvalidVolumeMountError struct {
		Value     VolumeMount
		FieldErrs []error
	}

	// SELinuxLabel is an SELinux volume labeling option.
	// The zero value ("") means no label.
	SELinuxLabel string
)

// Error implements the error interface.
func (e *InvalidPortProtocolError) Error() string {
	return fmt.Sprintf("invalid port protocol %q (valid: tcp, udp)", e.Value)
}

// Unwrap returns ErrInvalidPortProtocol for errors.Is compatibility.
func (e *InvalidPortProtocolError) Unwrap() error { return ErrInvalidPortProtocol }

// Validate returns an error unless the protocol is tcp, udp, or empty.
func (p PortProtocol) Validate() error {
	switch p {
	case PortProtocolTCP, PortProtocolUDP, "":
		return nil
	default:
		return &InvalidPortProtocolError{Value: p}
	}
}

// String returns the string representation of the PortProtocol.
func (p PortProtocol) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidNetworkPortError) Error() string {
	return fmt.Sprintf("invalid network port %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidNetworkPort for errors.Is compatibility.
func (e *InvalidNetworkPortError) Unwrap() error { return ErrInvalidNetworkPort }

// Validate returns an error if the port is zero.
func (p NetworkPort) Validate() error {
	if p == 0 {
		return &InvalidNetworkPortError{Value: p}
	}
	return nil
}

// String returns the decimal representation of the NetworkPort.
func (p NetworkPort) String() string { return strconv.Itoa(int(p)) }

// Error implements the error interface.
func (e *InvalidPortMappingError) Error() string {
	return fmt.Sprintf("invalid port mapping %d:%d/%s: %d field error(s)",
		e.Value.HostPort, e.Value.ContainerPort, e.Value.Protocol, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPortMapping for errors.Is compatibility.
func (e *InvalidPortMappingError) Unwrap() error { return ErrInvalidPortMapping }

// Validate checks all typed fields of the PortMapping.
func (p PortMapping) Validate() error {
	var errs []error
	if err := p.HostPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Protocol.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPortMappingError{Value: p, FieldErrs: errs}
	}
	return nil
}

// String returns the mapping in "host:container[/protocol]" form; the
// default tcp protocol is omitted.
func (p PortMapping) String() string {
	s := fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
	if p.Protocol != "" && p.Protocol != PortProtocolTCP {
		s += "/" + string(p.Protocol)
	}
	return s
}

// ParsePortMapping parses "host:container[/protocol]" into a PortMapping.
func ParsePortMapping(s string) (PortMapping, error) {
	spec, protoStr, hasProto := strings.Cut(s, "/")

	hostStr, containerStr, found := strings.Cut(spec, ":")
	if !found {
		return PortMapping{}, fmt.Errorf("%w: %q is not in host:container form", ErrInvalidPortMapping, s)
	}

	host, err := parsePort(hostStr)
	if err != nil {
		return PortMapping{}, fmt.Errorf("%w: %q: %w", ErrInvalidPortMapping, s, err)
	}
	container, err := parsePort(containerStr)
	if err != nil {
		return PortMapping{}, fmt.Errorf("%w: %q: %w", ErrInvalidPortMapping, s, err)
	}

	m := PortMapping{HostPort: host, ContainerPort: container}
	if hasProto {
		m.Protocol = PortProtocol(protoStr)
	}

	if err := m.Validate(); err != nil {
		return PortMapping{}, err
	}
	return m, nil
}

func parsePort(s string) (NetworkPort, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number in range 1-65535", s)
	}
	p := NetworkPort(n)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate checks that both paths are set and the container path is
// absolute, which the engines require for bind mounts.
func (v VolumeMount) Validate() error {
	var errs []error
	if strings.TrimSpace(v.HostPath) == "" {
		errs = append(errs, errors.New("host path must be non-empty"))
	}
	if strings.TrimSpace(v.ContainerPath) == "" {
		errs = append(errs, errors.New("container path must be non-empty"))
	} else if !strings.HasPrefix(v.ContainerPath, "/") {
		errs = append(errs, fmt.Errorf("container path %q must be absolute", v.ContainerPath))
	}
	if len(errs) > 0 {
		return &InvalidVolumeMountError{Value: v, FieldErrs: errs}
	}
	return nil
}

// String returns the mount in "host:container[:options]" form. Multiple
// options share one comma-separated suffix, which is the only form the
// engines accept.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	var opts []string
	if v.SELinux != "" {
		opts = append(opts, string(v.SELinux))
	}
	if v.ReadOnly {
		opts = append(opts, "ro")
	}
	if len(opts) > 0 {
		s += ":" + strings.Join(opts, ",")
	}
	return s
}

// ParseVolumeMount parses "host:container[:options]" into a VolumeMount.
// Options may be comma separated (the engine form) or carried in separate
// colon-delimited fields.
func ParseVolumeMount(s string) (VolumeMount, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return VolumeMount{}, fmt.Errorf("%w: %q is not in host:container[:options] form", ErrInvalidVolumeMount, s)
	}

	v := VolumeMount{HostPath: parts[0], ContainerPath: parts[1]}
	for _, field := range parts[2:] {
		for _, opt := range strings.Split(field, ",") {
			switch opt {
			case "ro":
				v.ReadOnly = true
			case "z":
				v.SELinux = SELinuxLabelShared
			case "Z":
				v.SELinux = SELinuxLabelPrivate
			default:
				return VolumeMount{}, fmt.Errorf("%w: %q: unknown mount option %q", ErrInvalidVolumeMount, s, opt)
			}
		}
	}

	if err := v.Validate(); err != nil {
		return VolumeMount{}, err
	}
	return v, nil
}
