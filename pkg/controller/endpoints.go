package controller

import (
	"fmt"
	"sort"

	"github.com/kubelearn/kubesim/pkg/types"
)

// EndpointsController recomputes every service's endpoint list from scratch
// each tick: the pods matching the selector that are Running, ready and not
// marked for deletion. No prior state is consulted, so endpoints can never
// go stale. Headless services publish per-pod DNS identities instead of
// plain pod names.
type EndpointsController struct{}

// NewEndpointsController creates a new service endpoints controller.
func NewEndpointsController() *EndpointsController {
	return &EndpointsController{}
}

// Name returns the controller name.
func (c *EndpointsController) Name() string {
	return "endpoints"
}

// Reconcile recomputes endpoints for every service.
func (c *EndpointsController) Reconcile(state *types.ClusterState, rctx *Context) {
	for _, svc := range state.Services {
		svc.Status.Endpoints = c.Endpoints(svc, state)
	}
}

// Endpoints computes the eligible endpoints for one service. Exposed so the
// goal evaluator can reuse the exact same eligibility rule.
func (c *EndpointsController) Endpoints(svc *types.Service, state *types.ClusterState) []string {
	endpoints := []string{}
	for _, pod := range state.Pods {
		if !types.SelectorMatches(pod.Meta.Labels, svc.Spec.Selector) {
			continue
		}
		if !pod.Ready() {
			continue
		}
		if svc.Spec.Headless {
			endpoints = append(endpoints, fmt.Sprintf("%s.%s", pod.Meta.Name, svc.Meta.Name))
		} else {
			endpoints = append(endpoints, pod.Meta.Name)
		}
	}
	sort.Strings(endpoints)
	return endpoints
}
