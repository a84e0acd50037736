// Copyright (C) 2015-2016  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.

package indexsink

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"
)

// indexName is the single collection the core writes both document shapes
// into (spec.md §6: "Two document types in a single collection `codelauf`").
const indexName = "codelauf"

// docType distinguishes the two document shapes sharing one ES mapping.
type docType string

const (
	docTypeCommit docType = "commit"
	docTypeFile   docType = "file"
)

// ElasticSink is the production Sink, backed by Elasticsearch.
type ElasticSink struct {
	client *elastic.Client
}

// NewElasticSink dials url (e.g. "http://localhost:9200").
func NewElasticSink(url string) (*ElasticSink, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, fmt.Errorf("dial elasticsearch %s: %w", url, err)
	}
	return &ElasticSink{client: client}, nil
}

// commitDocument / fileDocument embed doc_type so the two shapes coexist in
// one mapping (Elasticsearch has no notion of distinct types per document
// within a single index as of the 7.x "one type per index" model).
type commitDocument struct {
	CommitDoc
	DocType docType `json:"doc_type"`
}

type fileDocument struct {
	FileDoc
	DocType docType `json:"doc_type"`
}

func (s *ElasticSink) PutCommit(ctx context.Context, id string, doc CommitDoc) error {
	_, err := s.client.Index().
		Index(indexName).
		Id(id).
		BodyJson(commitDocument{CommitDoc: doc, DocType: docTypeCommit}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("put commit %s: %w", id, err)
	}
	return nil
}

func (s *ElasticSink) PutFile(ctx context.Context, id string, doc FileDoc) error {
	_, err := s.client.Index().
		Index(indexName).
		Id(id).
		BodyJson(fileDocument{FileDoc: doc, DocType: docTypeFile}).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("put file %s: %w", id, err)
	}
	return nil
}

func (s *ElasticSink) DeleteFile(ctx context.Context, id string) error {
	_, err := s.client.Delete().
		Index(indexName).
		Id(id).
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

var _ Sink = (*ElasticSink)(nil)
