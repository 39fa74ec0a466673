/*
Package yaml provides methods to parse config.Params
from YAML documents.
*/
package yaml

import (
	"fmt"
	"io/ioutil"

	"github.com/pbanos/sapling/config"
	yaml "gopkg.in/yaml.v2"
)

/*
ReadParams takes a slice of bytes with parameters in YML and returns them
parsed on top of the defaults of their dataset profile, or an error.
The YML is expected to be an object with a property for every parameter
to set, named as the yaml tags of config.Params. Unknown properties are
rejected.
*/
func ReadParams(data []byte) (*config.Params, error) {
	profile := struct {
		Dataset string `yaml:"dataset"`
	}{}
	err := yaml.Unmarshal(data, &profile)
	if err != nil {
		return nil, fmt.Errorf("parsing yml params: %v", err)
	}
	params, err := config.Default(profile.Dataset)
	if err != nil {
		return nil, err
	}
	err = yaml.UnmarshalStrict(data, params)
	if err != nil {
		return nil, fmt.Errorf("parsing yml params: %v", err)
	}
	return params, nil
}

/*
ReadParamsFromFile takes a filepath string, reads its contents and uses
ReadParams to parse it and return the parameters or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadParamsFromFile(filepath string) (*config.Params, error) {
	data, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading params yml file %s: %v", filepath, err)
	}
	params, err := ReadParams(data)
	if err != nil {
		err = fmt.Errorf("parsing params yml file %s: %v", filepath, err)
	}
	return params, err
}

/*
WriteParams returns the YML representation of the given parameters.
*/
func WriteParams(params *config.Params) ([]byte, error) {
	data, err := yaml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("serializing params as yml: %v", err)
	}
	return data, nil
}
