package refactor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Digest is the structural fingerprint of a resource: a hash over its type and
// canonicalized properties, with intrinsic references to sibling resources
// replaced by the referenced resource's own digest. Two resources are
// structurally interchangeable, and therefore matchable, iff their converged
// digests are equal.
type Digest string

// pendingDigest stands in for a referenced resource whose digest has not been
// computed yet. It only appears during refinement, never in a converged graph.
const pendingDigest Digest = "pending"

// DigestedResource pairs a resource with its converged digest.
type DigestedResource struct {
	Resource Resource
	Digest   Digest
}

// Pool indexes one side's digested resources by path. Overrides and matching
// consume resources from the pool; whatever remains unexplained at the end
// feeds the change validator.
type Pool map[string]DigestedResource

// BuildPool flattens the given stacks into a single pool and computes the
// converged digest of every resource.
func BuildPool(stacks []Stack) (Pool, error) {
	var resources []Resource
	for _, s := range stacks {
		resources = append(resources, s.Resources...)
	}
	digests, err := ComputeDigests(resources)
	if err != nil {
		return nil, err
	}
	pool := make(Pool, len(resources))
	for _, r := range resources {
		pool[r.Path] = DigestedResource{Resource: r, Digest: digests[r.Path]}
	}
	return pool, nil
}

// ComputeDigests computes the converged digest for every resource in the
// graph, keyed by resource path.
//
// Digest computation is mutually recursive over the reference graph, so it is
// resolved by fixed-point refinement: every resource starts from a digest in
// which references stand on a pending placeholder, and all digests are
// recomputed substituting the referenced resources' current digests until a
// full pass changes nothing. A dependency chain of length k stabilizes after k
// passes, so a graph that has not converged after len(resources)+1 passes
// contains a cycle and is rejected as malformed input.
func ComputeDigests(resources []Resource) (map[string]Digest, error) {
	d, err := newDigester(resources)
	if err != nil {
		return nil, err
	}

	current := make(map[string]Digest, len(resources))
	for pass := 0; pass <= len(resources); pass++ {
		next := make(map[string]Digest, len(resources))
		changed := false
		for _, r := range resources {
			dg := d.digest(r, current)
			if dg != current[r.Path] {
				changed = true
			}
			next[r.Path] = dg
		}
		current = next
		if !changed {
			return current, nil
		}
	}
	return nil, NewCyclicReferenceError(fmt.Sprintf(
		"resource reference graph did not converge after %d passes: templates contain a cyclic reference", len(resources)+1))
}

// digester resolves stack-scoped logical IDs to resource paths during
// canonicalization.
type digester struct {
	pathByID map[string]string
}

func newDigester(resources []Resource) (*digester, error) {
	d := &digester{pathByID: make(map[string]string, len(resources))}
	seen := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		if _, dup := seen[r.Path]; dup {
			return nil, NewConfigurationError("duplicate resource path", nil).WithPath(r.Path)
		}
		seen[r.Path] = struct{}{}
		d.pathByID[referenceKey(r.StackName, r.LogicalID)] = r.Path
	}
	return d, nil
}

func referenceKey(stackName, logicalID string) string {
	return stackName + "\x00" + logicalID
}

// digest computes one resource's digest against the current digests of its
// reference targets.
func (d *digester) digest(r Resource, current map[string]Digest) Digest {
	var buf bytes.Buffer
	buf.WriteString("type:")
	buf.WriteString(r.Type)
	buf.WriteString("|properties:")
	d.canonicalize(&buf, r.StackName, r.Properties, current)
	sum := sha256.Sum256(buf.Bytes())
	return Digest(hex.EncodeToString(sum[:]))
}

// canonicalize writes a canonical serialization of v: mapping keys sorted,
// sequence order preserved, and intrinsic references to sibling resources
// replaced by the target's current digest so that the target's own rename
// never changes the digest of the resource holding the reference.
func (d *digester) canonicalize(buf *bytes.Buffer, stackName string, v interface{}, current map[string]Digest) {
	switch val := v.(type) {
	case map[string]interface{}:
		if ref, ok := d.intrinsicReference(stackName, val); ok {
			buf.WriteString("{ref:")
			buf.WriteString(string(d.targetDigest(ref.path, current)))
			if ref.attribute != "" {
				buf.WriteByte('#')
				buf.WriteString(ref.attribute)
			}
			buf.WriteByte('}')
			return
		}
		if sub, ok := subTemplate(val); ok {
			d.canonicalizeSub(buf, stackName, sub, current)
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONScalar(buf, k)
			buf.WriteByte(':')
			d.canonicalize(buf, stackName, val[k], current)
		}
		buf.WriteByte('}')
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			d.canonicalize(buf, stackName, item, current)
		}
		buf.WriteByte(']')
	default:
		writeJSONScalar(buf, val)
	}
}

func (d *digester) targetDigest(path string, current map[string]Digest) Digest {
	if dg, ok := current[path]; ok && dg != "" {
		return dg
	}
	return pendingDigest
}

// reference is an intrinsic pointer at another resource in the same stack.
type reference struct {
	path      string
	attribute string
}

// intrinsicReference recognizes Ref and Fn::GetAtt values that point at a
// sibling resource. References to parameters and pseudo parameters do not
// resolve to a resource and are canonicalized literally.
func (d *digester) intrinsicReference(stackName string, val map[string]interface{}) (reference, bool) {
	if len(val) != 1 {
		return reference{}, false
	}
	if target, ok := val["Ref"].(string); ok {
		return d.resolve(stackName, target, "")
	}
	switch att := val["Fn::GetAtt"].(type) {
	case string:
		logicalID, attribute, ok := strings.Cut(att, ".")
		if !ok {
			return reference{}, false
		}
		return d.resolve(stackName, logicalID, attribute)
	case []interface{}:
		if len(att) < 2 {
			return reference{}, false
		}
		logicalID, ok := att[0].(string)
		if !ok {
			return reference{}, false
		}
		parts := make([]string, 0, len(att)-1)
		for _, p := range att[1:] {
			s, ok := p.(string)
			if !ok {
				return reference{}, false
			}
			parts = append(parts, s)
		}
		return d.resolve(stackName, logicalID, strings.Join(parts, "."))
	}
	return reference{}, false
}

func (d *digester) resolve(stackName, logicalID, attribute string) (reference, bool) {
	path, ok := d.pathByID[referenceKey(stackName, logicalID)]
	if !ok {
		return reference{}, false
	}
	return reference{path: path, attribute: attribute}, true
}

// subTemplate recognizes an Fn::Sub value: either a bare template string or a
// [template, variables] pair.
func subTemplate(val map[string]interface{}) ([]interface{}, bool) {
	if len(val) != 1 {
		return nil, false
	}
	switch sub := val["Fn::Sub"].(type) {
	case string:
		return []interface{}{sub}, true
	case []interface{}:
		if len(sub) >= 1 {
			if _, ok := sub[0].(string); ok {
				return sub, true
			}
		}
	}
	return nil, false
}

var subVariable = regexp.MustCompile(`\$\{([A-Za-z0-9_.:]+)\}`)

// canonicalizeSub rewrites ${LogicalID} and ${LogicalID.Attribute} variables
// that resolve to sibling resources with the target's current digest, leaving
// parameters, pseudo parameters, and ${!escaped} literals untouched.
func (d *digester) canonicalizeSub(buf *bytes.Buffer, stackName string, sub []interface{}, current map[string]Digest) {
	tmpl := sub[0].(string)
	rewritten := subVariable.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[2 : len(m)-1]
		logicalID, attribute, _ := strings.Cut(name, ".")
		ref, ok := d.resolve(stackName, logicalID, attribute)
		if !ok {
			return m
		}
		token := "${ref:" + string(d.targetDigest(ref.path, current))
		if ref.attribute != "" {
			token += "#" + ref.attribute
		}
		return token + "}"
	})
	buf.WriteString("{sub:")
	writeJSONScalar(buf, rewritten)
	for _, extra := range sub[1:] {
		buf.WriteByte(',')
		d.canonicalize(buf, stackName, extra, current)
	}
	buf.WriteByte('}')
}

func writeJSONScalar(buf *bytes.Buffer, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		// Property values come from parsed JSON templates, which always
		// re-marshal; anything else is hashed by its Go representation.
		fmt.Fprintf(buf, "%v", v)
		return
	}
	buf.Write(b)
}
