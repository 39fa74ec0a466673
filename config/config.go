/*
Package config holds the hyperparameters of a model and of its training,
together with the profiles of the datasets they are known for.
*/
package config

import (
	"fmt"
)

// Model variants
const (
	// ASTNNAttention encodes the subtrees of every submission and attends
	// over them once per concept.
	ASTNNAttention = "astnn-attn"
	// Code2VecConcat encodes the path contexts of every submission into a
	// single code vector.
	Code2VecConcat = "code2vec-concat"
)

/*
Params are the hyperparameters of a model and its training.
*/
type Params struct {
	Dataset string `yaml:"dataset"`
	Model   string `yaml:"model"`

	NumConcepts  int `yaml:"num_concepts"`
	NumProblems  int `yaml:"num_problems"`
	Seqlen       int `yaml:"seqlen"`
	HiddenDim    int `yaml:"hidden_dim"`
	HiddenLayers int `yaml:"hidden_layers"`
	PreviousDim  int `yaml:"previous_dim"`

	ConceptEmbedDim int `yaml:"concept_embed_dim"`
	MaxTokens       int `yaml:"max_tokens"`
	AstEmbedDim     int `yaml:"ast_embed_dim"`
	AstEncodeDim    int `yaml:"ast_encode_dim"`
	MaxLen          int `yaml:"max_len"`

	NodesDim    int `yaml:"nodes_dim"`
	PathsDim    int `yaml:"paths_dim"`
	CodevecSize int `yaml:"codevec_size"`
	MaxContexts int `yaml:"np"`

	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"init_lr"`
	WeightDecay  float64 `yaml:"weight_decay"`
	Epochs       int     `yaml:"epochs"`
	Patience     int     `yaml:"patience"`
	Folds        int     `yaml:"folds"`
	Seed         int64   `yaml:"seed"`
	GPU          int     `yaml:"gpu"`
}

var profiles = map[string]func(*Params){
	"codeforces": func(p *Params) {
		p.NumConcepts = 37
		p.NumProblems = 7152
		p.Seqlen = 200
		p.HiddenDim = 64
		p.HiddenLayers = 2
		p.NodesDim = 35544 + 1
		p.PathsDim = 380614 + 1
	},
}

/*
Default returns the default parameters for the given dataset profile. An
error is returned for unknown profiles; the empty profile gets only the
settings shared by every dataset.
*/
func Default(profile string) (*Params, error) {
	p := &Params{
		Dataset:         profile,
		Model:           ASTNNAttention,
		PreviousDim:     2,
		ConceptEmbedDim: 128,
		MaxTokens:       1000,
		AstEmbedDim:     128,
		AstEncodeDim:    128,
		MaxLen:          50,
		CodevecSize:     128,
		MaxContexts:     50,
		BatchSize:       32,
		LearningRate:    0.001,
		WeightDecay:     0,
		Epochs:          300,
		Patience:        10,
		Folds:           5,
		GPU:             -1,
	}
	if profile == "" {
		return p, nil
	}
	apply, ok := profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown dataset profile %q", profile)
	}
	apply(p)
	return p, nil
}

// Profiles returns the names of the known dataset profiles.
func Profiles() []string {
	var names []string
	for name := range profiles {
		names = append(names, name)
	}
	return names
}

// Concepts returns the number of concept slots, one more than the number
// of concepts.
func (p *Params) Concepts() int {
	return p.NumConcepts + 1
}

/*
Validate checks that the parameters describe a model that can be built and
trained, returning an error describing the first problem found.
*/
func (p *Params) Validate() error {
	if p.Model != ASTNNAttention && p.Model != Code2VecConcat {
		return fmt.Errorf("unknown model %q, expected %q or %q", p.Model, ASTNNAttention, Code2VecConcat)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"num_concepts", p.NumConcepts},
		{"seqlen", p.Seqlen},
		{"hidden_dim", p.HiddenDim},
		{"hidden_layers", p.HiddenLayers},
		{"previous_dim", p.PreviousDim},
		{"batch_size", p.BatchSize},
		{"epochs", p.Epochs},
		{"patience", p.Patience},
		{"folds", p.Folds},
	}
	if p.Model == ASTNNAttention {
		positive = append(positive, []struct {
			name  string
			value int
		}{
			{"concept_embed_dim", p.ConceptEmbedDim},
			{"max_tokens", p.MaxTokens},
			{"ast_embed_dim", p.AstEmbedDim},
			{"ast_encode_dim", p.AstEncodeDim},
			{"max_len", p.MaxLen},
		}...)
	} else {
		positive = append(positive, []struct {
			name  string
			value int
		}{
			{"nodes_dim", p.NodesDim},
			{"paths_dim", p.PathsDim},
			{"codevec_size", p.CodevecSize},
		}...)
	}
	for _, pv := range positive {
		if pv.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", pv.name, pv.value)
		}
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("init_lr must be positive, got %v", p.LearningRate)
	}
	if p.WeightDecay < 0 {
		return fmt.Errorf("weight_decay must not be negative, got %v", p.WeightDecay)
	}
	return nil
}
