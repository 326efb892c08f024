// Copyright 2017 Google Inc.
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

package k8s

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-kit/log"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"kubegw.io/internal/iprange"
	"kubegw.io/internal/logging"
)

// ErrControlPlaneUnreachable is returned when the services can't be
// read from the cluster.
var ErrControlPlaneUnreachable = errors.New("control plane unreachable")

// listPageSize is the maximum number of services requested per list
// call.
const listPageSize = 500

// Client reads the external addresses that services declare.
type Client struct {
	logger       log.Logger
	client       kubernetes.Interface
	serviceTypes map[corev1.ServiceType]bool
}

// Config specifies the configuration of the Kubernetes client.
type Config struct {
	ProcessName string
	Logger      log.Logger

	// InCluster selects the pod's service account credentials. If
	// it's false then Kubeconfig is used, or the default kubeconfig
	// loading rules if Kubeconfig is empty.
	InCluster  bool
	Kubeconfig string

	// Timeout bounds each request to the API server. Zero means no
	// timeout.
	Timeout time.Duration

	// ServiceTypes lists the types of service whose spec.externalIPs
	// are desired.
	ServiceTypes []corev1.ServiceType
}

// New connects to the cluster described by cfg.
//
// The client uses cfg.ProcessName to identify itself to the cluster.
func New(cfg *Config) (*Client, error) {
	k8sConfig, err := restConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building client config: %w", err)
	}
	k8sConfig.Timeout = cfg.Timeout
	if cfg.ProcessName != "" {
		k8sConfig = rest.AddUserAgent(k8sConfig, cfg.ProcessName)
	}

	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Kubernetes client: %w", err)
	}

	return NewForClientset(cfg, clientset)
}

// NewForClientset returns a Client that uses clientset. cfg's
// credential fields are ignored.
func NewForClientset(cfg *Config, clientset kubernetes.Interface) (*Client, error) {
	if len(cfg.ServiceTypes) == 0 {
		return nil, errors.New("at least one service type is required")
	}

	c := &Client{
		logger:       cfg.Logger,
		client:       clientset,
		serviceTypes: map[corev1.ServiceType]bool{},
	}
	for _, t := range cfg.ServiceTypes {
		c.serviceTypes[t] = true
	}

	return c, nil
}

func restConfig(cfg *Config) (*rest.Config, error) {
	if cfg.InCluster {
		return rest.InClusterConfig()
	}
	if cfg.Kubeconfig != "" {
		return clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		clientcmd.NewDefaultClientConfigLoadingRules(),
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
}

// Clientset returns the underlying Kubernetes clientset.
func (c *Client) Clientset() kubernetes.Interface {
	return c.client
}

// Desired returns the external addresses declared by all services of
// the configured types in all namespaces. Addresses that aren't IPV4
// are skipped. The error wraps ErrControlPlaneUnreachable if the
// services couldn't be listed.
func (c *Client) Desired(ctx context.Context) (iprange.Set, error) {
	desired := iprange.Set{}
	opts := metav1.ListOptions{Limit: listPageSize}

	for {
		serviceLists.Inc()
		list, err := c.client.CoreV1().Services(corev1.NamespaceAll).List(ctx, opts)
		if err != nil {
			serviceListErrors.Inc()
			return nil, fmt.Errorf("%w: listing services: %w", ErrControlPlaneUnreachable, err)
		}

		for i := range list.Items {
			c.addServiceAddresses(desired, &list.Items[i])
		}

		if list.Continue == "" {
			break
		}
		opts.Continue = list.Continue
	}

	return desired, nil
}

func (c *Client) addServiceAddresses(desired iprange.Set, svc *corev1.Service) {
	if !c.serviceTypes[svc.Spec.Type] {
		return
	}

	for _, raw := range svc.Spec.ExternalIPs {
		ip := net.ParseIP(strings.TrimSpace(raw))
		if ip == nil || !desired.Add(ip) {
			invalidAddresses.Inc()
			logging.Debug(c.logger, "op", "desired", "service", svc.Namespace+"/"+svc.Name, "ip", raw, "msg", "skipping external IP that isn't an IPV4 address")
		}
	}
}

// ParseServiceTypes parses a comma-separated list of service types,
// e.g., "ClusterIP,LoadBalancer".
func ParseServiceTypes(raw string) ([]corev1.ServiceType, error) {
	known := map[corev1.ServiceType]bool{
		corev1.ServiceTypeClusterIP:    true,
		corev1.ServiceTypeNodePort:     true,
		corev1.ServiceTypeLoadBalancer: true,
		corev1.ServiceTypeExternalName: true,
	}

	var types []corev1.ServiceType
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		t := corev1.ServiceType(field)
		if !known[t] {
			return nil, fmt.Errorf("unknown service type %q", field)
		}
		types = append(types, t)
	}

	if len(types) == 0 {
		return nil, errors.New("no service types specified")
	}

	return types, nil
}
