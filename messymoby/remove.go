// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package messymoby

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// RemoveDeadTestContainers removes exited or never started containers carrying
// the specified label. An empty label name removes nothing.
func RemoveDeadTestContainers(ctx context.Context, cln *client.Client, labelname string) error {
	if labelname == "" {
		return nil
	}
	deads, err := cln.ContainerList(ctx, types.ContainerListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("status", "exited"),
			filters.Arg("status", "created"),
			filters.Arg("label", labelname)),
	})
	if err != nil {
		return err
	}
	for _, dead := range deads {
		_ = cln.ContainerRemove(ctx, dead.ID, types.ContainerRemoveOptions{Force: true})
	}
	return nil
}

// RemoveDuplicateTestNetworks removes networks carrying the specified label
// whose names are ambiguous, that is, multiple networks with the same name,
// yet different IDs. An empty label name removes nothing.
func RemoveDuplicateTestNetworks(ctx context.Context, cln *client.Client, labelname string) error {
	if labelname == "" {
		return nil
	}
	nets, err := cln.NetworkList(ctx, types.NetworkListOptions{})
	if err != nil {
		return err
	}
	netIDs := map[string][]int{} // name -> indices into nets
	for idx, net := range nets {
		netIDs[net.Name] = append(netIDs[net.Name], idx)
	}
	for netname, idxs := range netIDs {
		if len(idxs) == 1 {
			continue
		}
		switch netname {
		case "bridge", "host", "none":
			continue
		}
		for _, idx := range idxs {
			if _, ok := nets[idx].Labels[labelname]; ok {
				_ = cln.NetworkRemove(ctx, nets[idx].ID)
			}
		}
	}
	return nil
}
