// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists crawl results to a local SQLite database so repeat
// runs against the same domain can be compared or replayed downstream.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agentberlin/sitebrief"
)

// CrawlRecord is one persisted crawl result. Payload holds the full
// BusinessInfo record as JSON.
type CrawlRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Domain       string `gorm:"index;not null"`
	URL          string `gorm:"not null"`
	Deep         bool   `gorm:"default:false"`
	PagesCrawled int    `gorm:"not null"`
	Payload      string `gorm:"not null"`
	CreatedAt    int64  `gorm:"autoCreateTime"`
}

// Store wraps the database connection.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&CrawlRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists one crawl result.
func (s *Store) Save(rootURL string, info *sitebrief.BusinessInfo) (*CrawlRecord, error) {
	payload, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode crawl result: %w", err)
	}
	record := &CrawlRecord{
		Domain:       info.Domain,
		URL:          rootURL,
		Deep:         info.Deep,
		PagesCrawled: len(info.PagesCrawled),
		Payload:      string(payload),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save crawl record: %w", err)
	}
	return record, nil
}

// LatestByDomain returns the most recent crawl record for a domain, or nil
// when the domain has never been crawled.
func (s *Store) LatestByDomain(domain string) (*CrawlRecord, error) {
	var record CrawlRecord
	result := s.db.Where("domain = ?", domain).Order("created_at DESC, id DESC").First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

// Decode unmarshals the record's payload back into a BusinessInfo.
func (r *CrawlRecord) Decode() (*sitebrief.BusinessInfo, error) {
	var info sitebrief.BusinessInfo
	if err := json.Unmarshal([]byte(r.Payload), &info); err != nil {
		return nil, fmt.Errorf("failed to decode crawl record: %w", err)
	}
	return &info, nil
}
