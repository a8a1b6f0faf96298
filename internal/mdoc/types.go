// Copyright 2025 Dominik Schlosser
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

package mdoc

// Scheme names the mdoc device engagement decoder.
const Scheme = "mdoc"

// Device engagement map keys (ISO/IEC 18013-5 section 8.2.1.1).
const (
	keyVersion          int64 = 0
	keySecurity         int64 = 1
	keyRetrievalMethods int64 = 2
)

// Retrieval method types.
const (
	RetrievalNFC       int64 = 1
	RetrievalBLE       int64 = 2
	RetrievalWiFiAware int64 = 3
)

var retrievalNames = map[int64]string{
	RetrievalNFC:       "NFC",
	RetrievalBLE:       "BLE",
	RetrievalWiFiAware: "WiFiAware",
}

// Engagement is a parsed DeviceEngagement structure.
type Engagement struct {
	Version     string
	CipherSuite int64
	// DeviceKey is the EDeviceKey as a JWK-shaped map {alg, crv, x, y}.
	DeviceKey        map[string]any
	RetrievalMethods []RetrievalMethod
}

// RetrievalMethod is one DeviceRetrievalMethod entry. Version and Options
// are zero when the entry is a bare type integer.
type RetrievalMethod struct {
	Type    int64
	Version int64
	Options map[string]any
}

// Name returns the transport name, or "" for unregistered types.
func (m RetrievalMethod) Name() string {
	return retrievalNames[m.Type]
}

func (m RetrievalMethod) toMeta() map[string]any {
	out := map[string]any{"type": m.Type}
	if name := m.Name(); name != "" {
		out["name"] = name
	}
	if m.Version != 0 {
		out["version"] = m.Version
	}
	if m.Options != nil {
		out["options"] = m.Options
	}
	return out
}
