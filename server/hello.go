/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const HelloMessage = "Hello World!"

// HelloService produces the greeting served on the root route.
type HelloService interface {
	GetHello() string
}

type helloService struct{}

func NewHelloService() HelloService { return helloService{} }

func (helloService) GetHello() string { return HelloMessage }

func helloHandler(svc HelloService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, svc.GetHello())
	}
}
