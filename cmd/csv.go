/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// pairRecord is one English/Telugu example read from an import file.
type pairRecord struct {
	English string `json:"english_text"`
	Telugu  string `json:"telugu_text"`
}

// readPairsCSV reads example pairs from the given 0-indexed columns. With
// header set the first row is skipped. Rows with an empty side are dropped.
func readPairsCSV(r io.Reader, englishCol, teluguCol int, header bool) ([]pairRecord, error) {
	if englishCol < 0 || teluguCol < 0 || englishCol == teluguCol {
		return nil, fmt.Errorf("invalid columns: english=%d telugu=%d", englishCol, teluguCol)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if header && len(records) > 0 {
		records = records[1:]
	}

	pairs := make([]pairRecord, 0, len(records))
	for i, row := range records {
		if englishCol >= len(row) || teluguCol >= len(row) {
			return nil, fmt.Errorf("row %d has %d columns", i+1, len(row))
		}
		p := pairRecord{English: strings.TrimSpace(row[englishCol]), Telugu: strings.TrimSpace(row[teluguCol])}
		if p.English == "" || p.Telugu == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// readPairsJSONL reads one {"english_text": ..., "telugu_text": ...} object
// per line, the record layout of the example collection. Blank lines are
// skipped.
func readPairsJSONL(r io.Reader) ([]pairRecord, error) {
	var pairs []pairRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var p pairRecord
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.English == "" || p.Telugu == "" {
			return nil, fmt.Errorf("line %d: %w", line, errors.New("english_text and telugu_text are required"))
		}
		pairs = append(pairs, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL: %w", err)
	}
	return pairs, nil
}
