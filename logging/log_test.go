// Copyright 2015 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func isJSON(s string) bool {
	var js map[string]interface{}
	return json.Unmarshal([]byte(s), &js) == nil
}

func TestFileOutputNewLogger(t *testing.T) {
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.Info("should show up in the new logger")

	a.Contains(buf.String(), "should show up in the new logger")
}

func TestSetLevelNewLogger(t *testing.T) {
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)

	nl.Debug("debug should not show up")
	nl.Info("info should show up")
	nl.Warn("warn should show up")

	a.NotContains(buf.String(), "debug should not show up")
	a.Contains(buf.String(), "info should show up")
	a.Contains(buf.String(), "warn should show up")
}

func TestIsLevelEnabled(t *testing.T) {
	a := require.New(t)

	nl := NewLogger()
	nl.SetLevel(Warn)
	a.True(nl.IsLevelEnabled(Error))
	a.False(nl.IsLevelEnabled(Info))
}

func TestWithFieldsNewLogger(t *testing.T) {
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)

	nl.WithFields(Fields{"seqno": int64(4), "view": "v1"}).Info("delivered")
	a.Contains(buf.String(), "seqno=4")
	a.Contains(buf.String(), "view=v1")
}

func TestSetJSONFormatter(t *testing.T) {
	a := require.New(t)

	var buf bytes.Buffer
	nl := NewLogger()
	nl.SetOutput(&buf)
	nl.SetJSONFormatter()
	nl.WithFields(Fields{"seqno": int64(4)}).Info("delivered")

	a.True(isJSON(buf.String()))
}
