package types

import (
	"fmt"
	"hash/fnv"
	"sort"
)

// TemplateHashLabel is the label controllers stamp on replica sets and their
// pods to tie them to the deployment template revision they were created from.
const TemplateHashLabel = "pod-template-hash"

// SelectorMatches reports whether the given labels satisfy the selector.
// Every selector key must be present with an exactly equal, case-sensitive
// value. An empty or nil selector matches nothing.
func SelectorMatches(labels, selector map[string]string) bool {
	if len(selector) == 0 {
		return false
	}
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}

// MergeLabels returns a new map containing base overlaid with extra.
// Neither input is mutated.
func MergeLabels(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// HashPodTemplate computes a deterministic short hash of a pod template.
// Two templates hash equal iff their image and labels are identical, so a
// deployment can detect template changes and recognize an old revision on
// rollback.
func HashPodTemplate(t PodTemplate) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "image=%s;", t.Spec.Image)
	if t.Spec.NotReady {
		fmt.Fprint(h, "notready;")
	}
	keys := make([]string, 0, len(t.Labels))
	for k := range t.Labels {
		if k == TemplateHashLabel {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, t.Labels[k])
	}
	return fmt.Sprintf("%x", h.Sum32())
}
