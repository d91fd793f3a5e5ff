// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobyns

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
)

// EmbeddedDNS is the address of Docker's embedded DNS resolver inside
// containers attached to custom Docker networks.
const EmbeddedDNS = "127.0.0.11:53"

// Network describes a Docker network attached to a container, together with
// the DNS labels of the other containers attached to it.
type Network struct {
	Name   string   // name of the Docker network.
	Labels []string // DNS labels on this network, sorted.
}

// NetnsRef returns a filesystem path referencing the network namespace of the
// specified container, which must be running.
func NetnsRef(ctx context.Context, moby *client.Client, nameOrID string) (string, error) {
	details, err := inspect(ctx, moby, nameOrID)
	if err != nil {
		return "", err
	}
	return netnsRef(details), nil
}

// AttachedNames takes on the position of the “center” container identified by
// nameOrID and then inspects the networks attached to this container. It then
// queries the containers attached to the attached networks for their
// container names and aliases. AttachedNames additionally returns a reference
// to the network namespace of the center container.
//
// This works correctly even in situations with multiple Docker networks having
// the same name, yet different IDs, as networks are inspected by ID.
func AttachedNames(ctx context.Context, moby *client.Client, nameOrID string) ([]Network, string, error) {
	center, err := inspect(ctx, moby, nameOrID)
	if err != nil {
		return nil, "", err
	}

	// Containers might be attached to several of the networks the center
	// container is attached to, so cache their details.
	cntrDetailsCache := map[string]types.ContainerJSON{}
	networks := make([]Network, 0, len(center.NetworkSettings.Networks))
	for attachedNetName, attachedNet := range center.NetworkSettings.Networks {
		attNetDetails, err := moby.NetworkInspect(ctx, attachedNet.NetworkID, types.NetworkInspectOptions{})
		if err != nil {
			return nil, "", err
		}
		if len(attNetDetails.Containers) == 0 {
			continue
		}
		// Service names might refer to multiple containers, so the same label
		// can show up several times.
		labels := map[string]struct{}{}
		for _, attCntr := range attNetDetails.Containers {
			if attCntr.Name == center.Name {
				continue
			}
			// Network inspection reveals only the attached container names, but
			// not their aliases.
			attCntrDetails, ok := cntrDetailsCache[attCntr.Name]
			if !ok {
				attCntrDetails, err = moby.ContainerInspect(ctx, attCntr.Name)
				if err != nil {
					continue
				}
				cntrDetailsCache[attCntr.Name] = attCntrDetails
			}
			labels[attCntr.Name] = struct{}{}
			if settings, ok := attCntrDetails.NetworkSettings.Networks[attachedNetName]; ok {
				for _, alias := range settings.Aliases {
					labels[alias] = struct{}{}
				}
			}
		}
		if len(labels) == 0 {
			continue
		}
		network := Network{
			Name:   attachedNetName,
			Labels: make([]string, 0, len(labels)),
		}
		for label := range labels {
			network.Labels = append(network.Labels, label)
		}
		sort.Strings(network.Labels)
		networks = append(networks, network)
	}
	sort.Slice(networks, func(a, b int) bool { return networks[a].Name < networks[b].Name })
	return networks, netnsRef(center), nil
}

// Names returns the unique DNS labels from all the specified networks, in
// sorted order.
func Names(networks []Network) []string {
	unique := map[string]struct{}{}
	for _, network := range networks {
		for _, label := range network.Labels {
			unique[label] = struct{}{}
		}
	}
	names := make([]string, 0, len(unique))
	for name := range unique {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// inspect the specified container, ensuring that it is running.
func inspect(ctx context.Context, moby *client.Client, nameOrID string) (types.ContainerJSON, error) {
	details, err := moby.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return types.ContainerJSON{}, fmt.Errorf("cannot inspect container %q: %w", nameOrID, err)
	}
	if details.State == nil || details.State.Pid == 0 {
		return types.ContainerJSON{}, fmt.Errorf("container %q is not running", nameOrID)
	}
	details.Name = strings.TrimPrefix(details.Name, "/") // argh, Docker's "/name" legacy!
	return details, nil
}

func netnsRef(details types.ContainerJSON) string {
	return fmt.Sprintf("/proc/%d/ns/net", details.State.Pid)
}
