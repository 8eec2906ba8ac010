// Package arguments assembles the ordered constructor arguments of the VRF
// consumer and persists them as an arguments.js module for verification
// tooling.
package arguments

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"

	"github.com/Bidon15/vrfdeploy"
	"github.com/Bidon15/vrfdeploy/internal/config"
)

// Source supplies required configuration values. *config.Config implements
// it.
type Source interface {
	Require(key string) (string, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bytes32", func(fl validator.FieldLevel) bool {
		b, err := hexutil.Decode(fl.Field().String())
		return err == nil && len(b) == 32
	})
	// Report env variable names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		switch f.Name {
		case "CoordinatorAddress":
			return vrfdeploy.EnvCoordinatorAddress
		case "SubscriptionID":
			return vrfdeploy.EnvSubscriptionID
		case "KeyHash":
			return vrfdeploy.EnvKeyHash
		}
		return f.Name
	})
	return v
}

// Build reads the three configured constructor parameters from src in
// constructor order and adds the fixed callback gas limit. It fails on the
// first absent key with ErrMissingConfig and on malformed values with
// ErrInvalidParameter.
func Build(src Source) (vrfdeploy.DeploymentParameters, error) {
	var p vrfdeploy.DeploymentParameters

	fields := []struct {
		key string
		dst *string
	}{
		{config.KeyCoordinatorAddress, &p.CoordinatorAddress},
		{config.KeySubscriptionID, &p.SubscriptionID},
		{config.KeyKeyHash, &p.KeyHash},
	}
	for _, f := range fields {
		val, err := src.Require(f.key)
		if err != nil {
			return vrfdeploy.DeploymentParameters{}, err
		}
		*f.dst = val
	}
	p.CallbackGasLimit = vrfdeploy.DefaultCallbackGasLimit

	if err := Validate(p); err != nil {
		return vrfdeploy.DeploymentParameters{}, err
	}
	return p, nil
}

// Validate checks the shape of each parameter.
func Validate(p vrfdeploy.DeploymentParameters) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", vrfdeploy.ErrInvalidParameter, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, fe.Field())
		}
		msgs = append(msgs, fmt.Sprintf("%s=%q failed %s", fe.Field(), fe.Value(), describe(fe.Tag())))
	}
	return fmt.Errorf("%w: %s", vrfdeploy.ErrInvalidParameter, strings.Join(msgs, "; "))
}

func describe(tag string) string {
	switch tag {
	case "eth_addr":
		return "address check"
	case "number":
		return "integer check"
	case "bytes32":
		return "32-byte hex check"
	}
	return tag
}
