// Copyright 2020 Acnodal Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package local

import (
	"context"
	"fmt"
	"net"
	"strings"

	utilexec "k8s.io/utils/exec"
)

const ipCommand = "ip"

// Messages that iproute2 prints when the address is already in the
// state that we asked for.
const (
	alreadyBound   = "File exists"
	alreadyUnbound = "Cannot assign requested address"
)

// ExecMutator binds and unbinds addresses by running "ip address add"
// and "ip address del".
type ExecMutator struct {
	exec utilexec.Interface
	ip   string
}

// NewExecMutator returns an ExecMutator that runs commands using
// exec. It fails if the ip command can't be found.
func NewExecMutator(exec utilexec.Interface) (*ExecMutator, error) {
	path, err := exec.LookPath(ipCommand)
	if err != nil {
		return nil, fmt.Errorf("finding %s command: %w", ipCommand, err)
	}
	return &ExecMutator{exec: exec, ip: path}, nil
}

// Add binds ip/prefixLen to ifName.
func (m *ExecMutator) Add(ctx context.Context, ifName string, ip net.IP, prefixLen int) error {
	err := m.run(ctx, "add", ifName, ip, prefixLen, alreadyBound)
	recordMutation(MutatorExec, "add", err)
	return err
}

// Remove unbinds ip/prefixLen from ifName.
func (m *ExecMutator) Remove(ctx context.Context, ifName string, ip net.IP, prefixLen int) error {
	err := m.run(ctx, "del", ifName, ip, prefixLen, alreadyUnbound)
	recordMutation(MutatorExec, "remove", err)
	return err
}

func (m *ExecMutator) run(ctx context.Context, verb string, ifName string, ip net.IP, prefixLen int, noop string) error {
	ipNet, err := hostNet(ip, prefixLen)
	if err != nil {
		return err
	}

	out, err := m.exec.CommandContext(ctx, m.ip, "address", verb, ipNet.String(), "dev", ifName).CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), noop) {
			return nil
		}
		return fmt.Errorf("%w: %s address %s %v dev %s: %w: %s", ErrMutationFailed, ipCommand, verb, ipNet, ifName, err, strings.TrimSpace(string(out)))
	}

	return nil
}
