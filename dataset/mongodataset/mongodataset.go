/*
Package mongodataset provides a implementation of dataset.Dataset
that uses a MongoDB database as backend.

Every sequence is stored as a document on the sequences collection,
with its trees in their nested array form.
*/
package mongodataset

import (
	"context"
	"fmt"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/dataset"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Dataset is a dataset.Writer from which sequences can be sequentially read.
Close ends its session.
*/
type Dataset interface {
	dataset.Writer
	Read(context.Context) (<-chan *dataset.Sequence, <-chan error)
	Close() error
}

// Sequences of a student are read in the order they were written, which
// the ObjectIds assigned on insert follow.
var readOrder = []string{"student", "_id"}

type mongodataset struct {
	session *mgo.Session
}

type stepDoc struct {
	Problem        int                   `bson:"problem"`
	Concepts       []float64             `bson:"concepts"`
	Trees          []interface{}         `bson:"trees,omitempty"`
	Paths          []dataset.PathContext `bson:"paths,omitempty"`
	Targets        []float64             `bson:"targets"`
	Result         float64               `bson:"result"`
	ConceptWeights []float64             `bson:"concept_weights"`
	Previous       []float64             `bson:"previous"`
}

type sequenceDoc struct {
	Student string    `bson:"student"`
	Steps   []stepDoc `bson:"steps"`
}

const (
	sequencesCollectionName = "sequences"
)

/*
Open takes a MongoDB database session and returns a
Dataset that works on the default database for
that session or an error if it fails to set up its indexes.
*/
func Open(ctx context.Context, session *mgo.Session) (Dataset, error) {
	mds := &mongodataset{session}
	err := mds.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return mds, nil
}

/*
Dial takes a MongoDB URL, connects to it and returns a Dataset
working on the database the URL names.
*/
func Dial(ctx context.Context, url string) (Dataset, error) {
	session, err := mgo.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %v", url, err)
	}
	return Open(ctx, session)
}

func (mds *mongodataset) Sequences(ctx context.Context) ([]*dataset.Sequence, error) {
	var sequences []*dataset.Sequence
	count, err := mds.Count(ctx)
	if err == nil {
		sequences = make([]*dataset.Sequence, 0, count)
	}
	seqChan, errs := mds.Read(ctx)
	for s := range seqChan {
		sequences = append(sequences, s)
	}
	err = <-errs
	return sequences, err
}

func (mds *mongodataset) Count(context.Context) (int, error) {
	return mds.sequencesCollection().Find(bson.M{}).Count()
}

func (mds *mongodataset) Write(ctx context.Context, sequences []*dataset.Sequence) (int, error) {
	docs := make([]interface{}, 0, len(sequences))
	for _, s := range sequences {
		docs = append(docs, toDoc(s))
	}
	if len(docs) == 0 {
		return 0, nil
	}
	err := mds.sequencesCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(sequences), nil
}

func (mds *mongodataset) Read(ctx context.Context) (<-chan *dataset.Sequence, <-chan error) {
	sequences := make(chan *dataset.Sequence)
	errs := make(chan error, 1)
	go func() {
		var err error
		iter := mds.sequencesCollection().Find(bson.M{}).Sort(readOrder...).Iter()
		defer iter.Close()
		doc := &sequenceDoc{}
	loop:
		for iter.Next(doc) {
			var s *dataset.Sequence
			s, err = fromDoc(doc)
			if err != nil {
				break
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break loop
			case sequences <- s:
			}
			doc = &sequenceDoc{}
		}
		if err == nil {
			err = iter.Err()
		}
		if err != nil {
			errs <- err
		}
		close(errs)
		close(sequences)
	}()
	return sequences, errs
}

func (mds *mongodataset) Close() error {
	mds.session.Close()
	return nil
}

func (mds *mongodataset) ensureIndexes() error {
	index := mgo.Index{
		Key:        []string{"student"},
		Background: true,
	}
	return mds.sequencesCollection().EnsureIndex(index)
}

func (mds *mongodataset) sequencesCollection() *mgo.Collection {
	return mds.session.DB("").C(sequencesCollectionName)
}

func toDoc(s *dataset.Sequence) *sequenceDoc {
	doc := &sequenceDoc{Student: s.Student, Steps: make([]stepDoc, len(s.Steps))}
	for i, st := range s.Steps {
		var trees []interface{}
		for _, t := range st.Trees {
			trees = append(trees, t.Nested())
		}
		doc.Steps[i] = stepDoc{
			Problem:        st.Problem,
			Concepts:       st.Concepts,
			Trees:          trees,
			Paths:          st.Paths,
			Targets:        st.Targets,
			Result:         st.Result,
			ConceptWeights: st.ConceptWeights,
			Previous:       st.Previous,
		}
	}
	return doc
}

func fromDoc(doc *sequenceDoc) (*dataset.Sequence, error) {
	s := &dataset.Sequence{Student: doc.Student, Steps: make([]dataset.Step, len(doc.Steps))}
	for i, sd := range doc.Steps {
		var trees []*ast.Node
		for k, nested := range sd.Trees {
			t, err := ast.FromNested(nested)
			if err != nil {
				return nil, fmt.Errorf("student %q step %d tree %d: %v", doc.Student, i, k, err)
			}
			trees = append(trees, t)
		}
		s.Steps[i] = dataset.Step{
			Problem:        sd.Problem,
			Concepts:       sd.Concepts,
			Trees:          trees,
			Paths:          sd.Paths,
			Targets:        sd.Targets,
			Result:         sd.Result,
			ConceptWeights: sd.ConceptWeights,
			Previous:       sd.Previous,
		}
	}
	return s, nil
}
