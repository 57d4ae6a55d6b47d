// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package edctest provides a scriptable fake of the EDC management API for tests.
package edctest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	APIKey        = "password"
	ProviderID    = "provider"
	NegotiationID = "neg-1"
	TransferID    = "tp-1"
	AgreementID   = "agr-1"
	Nonce         = "nonce"
)

// Observation is one scripted answer to a status request. A non-zero StatusCode answers with
// that status and Body instead.
type Observation struct {
	State       string
	AgreementID string
	ErrorDetail string
	StatusCode  int
	Body        string
}

// Connector is a fake connector. Scripted observations are consumed one per status request, the
// last one repeats.
type Connector struct {
	Server *httptest.Server

	mu                  sync.Mutex
	assets              map[string]map[string]any
	assetOrder          []string
	policies            map[string]map[string]any
	policyOrder         []string
	definitions         map[string]map[string]any
	definitionOrder     []string
	negotiationScript   []Observation
	transferScript      []Observation
	dataAddress         map[string]any
	data                string
	extraOffers         []map[string]any
	intercept           func(r *http.Request) (int, string, bool)
	calls               map[string]int
	lastContractRequest map[string]any
	lastTransferRequest map[string]any
}

// New starts a fake connector. The data address served for transfers points at the fake's own
// public data endpoint.
func New() *Connector {
	c := &Connector{
		assets:      make(map[string]map[string]any),
		policies:    make(map[string]map[string]any),
		definitions: make(map[string]map[string]any),
		calls:       make(map[string]int),
		negotiationScript: []Observation{
			{State: "REQUESTED"},
			{State: "AGREED", AgreementID: AgreementID},
			{State: "FINALIZED", AgreementID: AgreementID},
		},
		transferScript: []Observation{
			{State: "REQUESTED"},
			{State: "STARTED"},
			{State: "COMPLETED"},
		},
		data: `{"hello":"world"}`,
	}
	c.Server = httptest.NewServer(c.routes())
	c.dataAddress = map[string]any{
		"@type":         "DataAddress",
		"endpointType":  "https://w3id.org/idsa/v4.1/HTTP",
		"endpoint":      "${EDC_DATAPLANE_PUBLIC_URL:" + c.Server.URL + "/public}",
		"authorization": "token-1",
	}
	return c
}

// Close stops the fake.
func (c *Connector) Close() { c.Server.Close() }

// ManagementURL is the base URL of the management API.
func (c *Connector) ManagementURL() string { return c.Server.URL + "/management" }

// ProtocolURL is the protocol endpoint the fake pretends to serve as a provider.
func (c *Connector) ProtocolURL() string { return c.Server.URL + "/protocol" }

// ScriptNegotiation replaces the negotiation status script.
func (c *Connector) ScriptNegotiation(obs ...Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negotiationScript = obs
}

// ScriptTransfer replaces the transfer status script.
func (c *Connector) ScriptTransfer(obs ...Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transferScript = obs
}

// SetDataAddress replaces the EDR data address; nil makes the endpoint answer 404.
func (c *Connector) SetDataAddress(da map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataAddress = da
}

// AddOffer adds an offer to the catalog that doesn't come from a contract definition.
func (c *Connector) AddOffer(dataset map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extraOffers = append(c.extraOffers, dataset)
}

// Intercept installs a function that can answer any request before the fake does.
func (c *Connector) Intercept(f func(r *http.Request) (status int, body string, handled bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intercept = f
}

// Calls returns how often a route was called, e.g. "GET /management/v3/contractnegotiations/{id}".
func (c *Connector) Calls(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[route]
}

// LastContractRequest returns the last contract request document received.
func (c *Connector) LastContractRequest() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastContractRequest
}

// LastTransferRequest returns the last transfer request document received.
func (c *Connector) LastTransferRequest() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTransferRequest
}

// OfferID returns the offer id the catalog uses for a contract definition and asset.
func OfferID(definitionID, assetID string) string {
	enc := base64.StdEncoding.EncodeToString
	return enc([]byte(definitionID)) + ":" + enc([]byte(assetID)) + ":" + enc([]byte(Nonce))
}

type handler func(r *http.Request, body map[string]any) (int, any)

func (c *Connector) routes() http.Handler {
	mux := http.NewServeMux()
	m := "/management/v3"
	routes := map[string]handler{
		"POST " + m + "/assets":                      c.createAsset,
		"GET " + m + "/assets":                       c.listOf(&c.assetOrder, c.assets),
		"POST " + m + "/assets/request":              c.listOf(&c.assetOrder, c.assets),
		"POST " + m + "/policydefinitions":           c.createPolicy,
		"POST " + m + "/policydefinitions/request":   c.listOf(&c.policyOrder, c.policies),
		"POST " + m + "/contractdefinitions":         c.createDefinition,
		"POST " + m + "/contractdefinitions/request": c.listOf(&c.definitionOrder, c.definitions),
		"POST " + m + "/catalog/request":             c.catalog,
		"POST " + m + "/contractnegotiations":        c.negotiate,
		"GET " + m + "/contractnegotiations/{id}":    c.negotiationStatus,
		"POST " + m + "/transferprocesses":           c.transfer,
		"GET " + m + "/transferprocesses/{id}":       c.transferStatus,
		"GET " + m + "/edrs/{id}/dataaddress":        c.edr,
	}
	for pattern, h := range routes {
		mux.HandleFunc(pattern, c.wrap(pattern, h))
	}
	mux.HandleFunc("GET /public", c.publicData)
	return mux
}

func (c *Connector) wrap(pattern string, h handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.calls[pattern]++
		intercept := c.intercept
		c.mu.Unlock()

		if intercept != nil {
			if status, body, ok := intercept(r); ok {
				w.WriteHeader(status)
				_, _ = io.WriteString(w, body)
				return
			}
		}
		if r.Header.Get("X-API-Key") != APIKey {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
			return
		}
		var body map[string]any
		if r.Body != nil {
			b, _ := io.ReadAll(r.Body)
			if len(b) > 0 {
				if err := json.Unmarshal(b, &body); err != nil {
					writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
					return
				}
			}
		}
		c.mu.Lock()
		status, resp := h(r, body)
		c.mu.Unlock()
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) []map[string]any {
	return []map[string]any{{"message": msg, "type": "ObjectError"}}
}

func created(id string) map[string]any {
	return map[string]any{"@type": "IdResponse", "@id": id, "createdAt": 1}
}

func (c *Connector) createAsset(_ *http.Request, body map[string]any) (int, any) {
	id, _ := body["@id"].(string)
	if id == "" {
		return http.StatusBadRequest, errorBody("@id is missing")
	}
	if _, ok := c.assets[id]; ok {
		return http.StatusConflict, errorBody(fmt.Sprintf("Asset %s already exists", id))
	}
	c.assets[id] = body
	c.assetOrder = append(c.assetOrder, id)
	return http.StatusOK, created(id)
}

func (c *Connector) createPolicy(_ *http.Request, body map[string]any) (int, any) {
	id, _ := body["@id"].(string)
	if _, ok := c.policies[id]; ok {
		return http.StatusConflict, errorBody(fmt.Sprintf("Policy %s already exists", id))
	}
	c.policies[id] = body
	c.policyOrder = append(c.policyOrder, id)
	return http.StatusOK, created(id)
}

func (c *Connector) createDefinition(_ *http.Request, body map[string]any) (int, any) {
	id, _ := body["@id"].(string)
	if _, ok := c.definitions[id]; ok {
		return http.StatusConflict, errorBody(fmt.Sprintf("ContractDefinition %s already exists", id))
	}
	for _, key := range []string{"accessPolicyId", "contractPolicyId"} {
		pid, _ := body[key].(string)
		if _, ok := c.policies[pid]; !ok {
			return http.StatusBadRequest, errorBody(fmt.Sprintf("Policy %s not found", pid))
		}
	}
	c.definitions[id] = body
	c.definitionOrder = append(c.definitionOrder, id)
	return http.StatusOK, created(id)
}

func (c *Connector) listOf(order *[]string, docs map[string]map[string]any) handler {
	return func(_ *http.Request, _ map[string]any) (int, any) {
		out := make([]map[string]any, 0, len(*order))
		for _, id := range *order {
			out = append(out, docs[id])
		}
		return http.StatusOK, out
	}
}

func (c *Connector) catalog(_ *http.Request, body map[string]any) (int, any) {
	if addr, _ := body["counterPartyAddress"].(string); !strings.HasSuffix(addr, "/protocol") {
		return http.StatusBadGateway, errorBody("provider unreachable")
	}
	datasets := make([]any, 0)
	for _, defID := range c.definitionOrder {
		def := c.definitions[defID]
		for _, assetID := range c.selectedAssets(def) {
			datasets = append(datasets, map[string]any{
				"@id":   assetID,
				"@type": "dcat:Dataset",
				"name":  assetID,
				"odrl:hasPolicy": map[string]any{
					"@id":             OfferID(defID, assetID),
					"@type":           "odrl:Offer",
					"odrl:permission": map[string]any{"odrl:action": map[string]any{"@id": "odrl:use"}},
				},
			})
		}
	}
	for _, d := range c.extraOffers {
		datasets = append(datasets, d)
	}
	return http.StatusOK, map[string]any{
		"@type":                "dcat:Catalog",
		"dcat:dataset":         datasets,
		"dspace:participantId": ProviderID,
	}
}

func (c *Connector) selectedAssets(def map[string]any) []string {
	var selected []string
	criteria, _ := def["assetsSelector"].([]any)
	for _, id := range c.assetOrder {
		match := true
		for _, cr := range criteria {
			crit, _ := cr.(map[string]any)
			if crit["operator"] == "=" && crit["operandRight"] != id {
				match = false
			}
		}
		if match {
			selected = append(selected, id)
		}
	}
	return selected
}

func (c *Connector) negotiate(_ *http.Request, body map[string]any) (int, any) {
	c.lastContractRequest = body
	if _, ok := body["policy"].(map[string]any); !ok {
		return http.StatusBadRequest, errorBody("policy is missing")
	}
	return http.StatusOK, created(NegotiationID)
}

func next(script *[]Observation) Observation {
	if len(*script) == 0 {
		return Observation{StatusCode: http.StatusNotFound, Body: "not found"}
	}
	o := (*script)[0]
	if len(*script) > 1 {
		*script = (*script)[1:]
	}
	return o
}

func (c *Connector) negotiationStatus(r *http.Request, _ map[string]any) (int, any) {
	o := next(&c.negotiationScript)
	if o.StatusCode != 0 {
		return o.StatusCode, errorBody(o.Body)
	}
	doc := map[string]any{
		"@type":               "ContractNegotiation",
		"@id":                 r.PathValue("id"),
		"type":                "CONSUMER",
		"protocol":            "dataspace-protocol-http",
		"state":               o.State,
		"counterPartyAddress": "http://provider/protocol",
	}
	if o.AgreementID != "" {
		doc["contractAgreementId"] = o.AgreementID
	}
	if o.ErrorDetail != "" {
		doc["errorDetail"] = o.ErrorDetail
	}
	return http.StatusOK, doc
}

func (c *Connector) transfer(_ *http.Request, body map[string]any) (int, any) {
	c.lastTransferRequest = body
	if id, _ := body["contractId"].(string); id == "" {
		return http.StatusBadRequest, errorBody("contractId is missing")
	}
	return http.StatusOK, created(TransferID)
}

func (c *Connector) transferStatus(r *http.Request, _ map[string]any) (int, any) {
	o := next(&c.transferScript)
	if o.StatusCode != 0 {
		return o.StatusCode, errorBody(o.Body)
	}
	doc := map[string]any{
		"@type":      "TransferProcess",
		"@id":        r.PathValue("id"),
		"state":      o.State,
		"contractId": AgreementID,
		"assetId":    "asset-1",
		"dataDestination": map[string]any{
			"@type": "DataAddress",
			"type":  "HttpProxy",
		},
	}
	if o.ErrorDetail != "" {
		doc["errorDetail"] = o.ErrorDetail
	}
	return http.StatusOK, doc
}

func (c *Connector) edr(_ *http.Request, _ map[string]any) (int, any) {
	if c.dataAddress == nil {
		return http.StatusNotFound, errorBody("not found")
	}
	return http.StatusOK, c.dataAddress
}

func (c *Connector) publicData(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "token-1" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c.mu.Lock()
	data := c.data
	c.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, data)
}
