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

package mock

// Fixture content mirrors the public EU DCC and NZ Ministry of Health
// samples. Each call returns a fresh map so callers may modify it.

// VaccinationCert returns an EU DCC vaccination certificate body.
func VaccinationCert() map[string]any {
	return map[string]any{
		"ver": "1.3.0",
		"nam": personName(),
		"dob": "1964-08-12",
		"v": []any{map[string]any{
			"tg": "840539006",
			"vp": "1119349007",
			"mp": "EU/1/20/1528",
			"ma": "ORG-100030215",
			"dn": 2,
			"sd": 2,
			"dt": "2021-05-29",
			"co": "DE",
			"is": "Robert Koch-Institut",
			"ci": "URN:UVCI:01DE/IZ12345A/5CWLU12RNOB9RXSEOP6FG8#W",
		}},
	}
}

// TestCert returns an EU DCC test certificate body.
func TestCert() map[string]any {
	return map[string]any{
		"ver": "1.3.0",
		"nam": personName(),
		"dob": "1964-08-12",
		"t": []any{map[string]any{
			"tg": "840539006",
			"tt": "LP6464-4",
			"nm": "Roche LightCycler qPCR",
			"sc": "2021-05-30T10:12:22Z",
			"tr": "260415000",
			"tc": "Testzentrum Köln Hbf",
			"co": "DE",
			"is": "Robert Koch-Institut",
			"ci": "URN:UVCI:01DE/IZ12345A/5CWLU12RNOB9RXSEOP6FG8#T",
		}},
	}
}

// RecoveryCert returns an EU DCC recovery certificate body.
func RecoveryCert() map[string]any {
	return map[string]any{
		"ver": "1.3.0",
		"nam": personName(),
		"dob": "1964-08-12",
		"r": []any{map[string]any{
			"tg": "840539006",
			"fr": "2021-04-21",
			"df": "2021-05-01",
			"du": "2021-10-21",
			"co": "DE",
			"is": "Robert Koch-Institut",
			"ci": "URN:UVCI:01DE/5CWLU12RNOB9RXSEOP6FG8#R",
		}},
	}
}

func personName() map[string]any {
	return map[string]any{
		"fn":  "Mustermann",
		"gn":  "Erika",
		"fnt": "MUSTERMANN",
		"gnt": "ERIKA",
	}
}

// NZCPSubject returns the credential subject of the NZ MoH example pass.
func NZCPSubject() map[string]any {
	return map[string]any{
		"givenName":  "Jack",
		"familyName": "Sparrow",
		"dob":        "1960-04-16",
	}
}
