/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud_test

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestCloudProperties(t *testing.T) {

	r := cloud.NewPropertyResolver(newCloud(t))
	require.Equal(t, cloud.PropertyPriority, r.Priority())

	expected := map[string]string{
		"cloud.application.name":           "orders",
		"cloud.application.instance-index": "2",
		"cloud.application.uris":           "orders.example.com;orders.internal",
		"cloud.application.port":           "8080",
		"cloud.services.orders-db.label":   "mysql-5.7",
		"cloud.services.orders-db.type":    "relational",

		"cloud.services.orders-db.connection.host": "db.local",
		"cloud.services.orders-db.connection.port": "3307",
		"cloud.services.orders-db.connection.name": "orders",

		// single redis service is exposed under its kind
		"cloud.services.redis.connection.host": "redis.local",
		"cloud.services.redis.connection.port": "6380",

		"cloud.services.smtp.label": "user-provided",
	}

	for key, value := range expected {
		actual, ok := r.GetProperty(key)
		require.True(t, ok, key)
		require.Equal(t, value, actual, key)
	}

	// two relational services, no shortcut
	_, ok := r.GetProperty("cloud.services.relational.connection.host")
	require.False(t, ok)

	// empty values are not exposed
	_, ok = r.GetProperty("cloud.services.cache.connection.username")
	require.False(t, ok)

	props := r.Properties()
	delete(props, "cloud.application.name")
	_, ok = r.GetProperty("cloud.application.name")
	require.True(t, ok)
}

func TestCloudPropertiesPriority(t *testing.T) {

	p := cloudglue.NewProperties()
	p.Set("cloud.application.name", "local")
	p.Register(cloud.NewPropertyResolver(newCloud(t)))

	require.Equal(t, "local", p.GetString("cloud.application.name", ""))
	require.Equal(t, "dev", p.GetString("cloud.application.space-name", ""))
}
