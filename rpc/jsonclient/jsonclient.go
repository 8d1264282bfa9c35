// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonclient 调用 JSON-RPC 服务端的客户端，命令行与外围工具共用
package jsonclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
)

// JSONClient 一个服务端地址加默认服务名前缀
type JSONClient struct {
	url    string
	prefix string
	client *http.Client
}

var requestID uint64

// NewJSONClient 创建指向 Pot 服务的客户端
func NewJSONClient(url string) (*JSONClient, error) {
	return New("Pot", url)
}

// New 创建指定服务名前缀的客户端
func New(prefix, url string) (*JSONClient, error) {
	return &JSONClient{url: url, prefix: prefix, client: &http.Client{}}, nil
}

func (client *JSONClient) addPrefix(method string) string {
	if client.prefix != "" && !strings.Contains(method, ".") {
		return client.prefix + "." + method
	}
	return method
}

type clientRequest struct {
	Method string         `json:"method"`
	Params [1]interface{} `json:"params"`
	ID     uint64         `json:"id"`
}

type clientResponse struct {
	ID     uint64           `json:"id"`
	Result *json.RawMessage `json:"result"`
	Error  interface{}      `json:"error"`
}

// Call 同步调用 method，params 为参数结构，resp 传入应答结构的指针
func (client *JSONClient) Call(method string, params, resp interface{}) error {
	method = client.addPrefix(method)
	req := &clientRequest{Method: method, ID: atomic.AddUint64(&requestID, 1)}
	req.Params[0] = params
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	postresp, err := client.client.Post(client.url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer postresp.Body.Close()
	b, err := ioutil.ReadAll(postresp.Body)
	if err != nil {
		return err
	}
	if postresp.StatusCode != http.StatusOK {
		return errors.Errorf("http status %d: %s", postresp.StatusCode, strings.TrimSpace(string(b)))
	}
	cresp := &clientResponse{}
	err = json.Unmarshal(b, cresp)
	if err != nil {
		return err
	}
	if cresp.Error != nil {
		x, ok := cresp.Error.(string)
		if !ok {
			return fmt.Errorf("invalid error %v", cresp.Error)
		}
		if x == "" {
			x = "unspecified error"
		}
		return errors.New(x)
	}
	if cresp.Result == nil {
		return errors.New("empty result")
	}
	return json.Unmarshal(*cresp.Result, resp)
}
