// Package contract loads a compiled contract (ABI and creation bytecode) and
// turns loosely typed constructor arguments into ABI-encodable values.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Bidon15/vrfdeploy"
)

// Artifact is the subset of a Hardhat or Foundry build artifact needed to
// deploy a contract.
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     Bytecode        `json:"bytecode"`
}

// Bytecode is creation bytecode. Hardhat stores it as a hex string, Foundry
// as {"object": "0x..."}; both forms are accepted.
type Bytecode struct {
	Object string `json:"object"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytecode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.Object = obj.Object
	return nil
}

// Template is a deployable contract: parsed ABI plus creation bytecode.
type Template struct {
	name     string
	abi      abi.ABI
	bytecode []byte
}

// LoadArtifact reads a build artifact from path.
func LoadArtifact(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", vrfdeploy.ErrArtifact, path, err)
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", vrfdeploy.ErrArtifact, path, err)
	}

	bytecode, err := decodeBytecode(art.Bytecode.Object)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", vrfdeploy.ErrArtifact, path, err)
	}

	name := art.ContractName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	return New(name, string(art.ABI), bytecode)
}

// New builds a template from an ABI JSON document and creation bytecode.
func New(name, abiJSON string, bytecode []byte) (*Template, error) {
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s has empty bytecode", vrfdeploy.ErrArtifact, name)
	}
	if strings.TrimSpace(abiJSON) == "" {
		return nil, fmt.Errorf("%w: %s has no ABI", vrfdeploy.ErrArtifact, name)
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s ABI: %w", vrfdeploy.ErrArtifact, name, err)
	}
	return &Template{name: name, abi: parsed, bytecode: bytecode}, nil
}

// Name returns the contract name.
func (t *Template) Name() string { return t.name }

// ABI returns the parsed contract ABI.
func (t *Template) ABI() abi.ABI { return t.abi }

// Bytecode returns a copy of the creation bytecode without constructor
// arguments.
func (t *Template) Bytecode() []byte {
	return bytes.Clone(t.bytecode)
}

// ConstructorInputs returns the constructor parameter list (empty if the
// contract declares no constructor).
func (t *Template) ConstructorInputs() abi.Arguments {
	return t.abi.Constructor.Inputs
}

// ConstructorArgs converts args, positionally, to the Go types the
// constructor inputs require.
func (t *Template) ConstructorArgs(args []any) ([]any, error) {
	inputs := t.ConstructorInputs()
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%w: %s constructor takes %d arguments, got %d",
			vrfdeploy.ErrInvalidParameter, t.name, len(inputs), len(args))
	}

	out := make([]any, len(args))
	for i, in := range inputs {
		v, err := Coerce(in.Type, args[i])
		if err != nil {
			label := in.Name
			if label == "" {
				label = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("%w: constructor argument %s (%s): %w",
				vrfdeploy.ErrInvalidParameter, label, in.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// PackConstructor returns the ABI encoding of the constructor arguments, the
// value block explorers ask for when verifying a deployment.
func (t *Template) PackConstructor(args []any) ([]byte, error) {
	typed, err := t.ConstructorArgs(args)
	if err != nil {
		return nil, err
	}
	packed, err := t.abi.Pack("", typed...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack constructor: %w", vrfdeploy.ErrInvalidParameter, err)
	}
	return packed, nil
}

// DeployData returns creation bytecode followed by the packed constructor
// arguments.
func (t *Template) DeployData(args []any) ([]byte, error) {
	packed, err := t.PackConstructor(args)
	if err != nil {
		return nil, err
	}
	return append(t.Bytecode(), packed...), nil
}

func decodeBytecode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" {
		return nil, fmt.Errorf("empty bytecode")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if strings.Contains(s, "__") {
		return nil, fmt.Errorf("bytecode has unlinked library placeholders")
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	return b, nil
}
