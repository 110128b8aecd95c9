// Copyright 2026 The Okteto Authors
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

package deployments

import (
	"context"
	"testing"

	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	apiv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes/fake"
)

func pod(name, owner string, labels map[string]string) *apiv1.Pod {
	return &apiv1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:            name,
			Namespace:       "app",
			Labels:          labels,
			OwnerReferences: []metav1.OwnerReference{{UID: types.UID(owner)}},
		},
	}
}

func TestGetPods(t *testing.T) {
	ctx := context.Background()
	labels := map[string]string{"app": "web"}
	d := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app", UID: "d-web"},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: labels},
		},
	}
	current := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name: "web-new", Namespace: "app", UID: "rs-new", Labels: labels,
			OwnerReferences: []metav1.OwnerReference{{UID: "d-web"}},
		},
	}
	previous := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name: "web-old", Namespace: "app", UID: "rs-old", Labels: labels,
			OwnerReferences: []metav1.OwnerReference{{UID: "d-web"}},
		},
	}
	foreign := &appsv1.ReplicaSet{
		ObjectMeta: metav1.ObjectMeta{
			Name: "web-foreign", Namespace: "app", UID: "rs-foreign", Labels: labels,
			OwnerReferences: []metav1.OwnerReference{{UID: "d-other"}},
		},
	}

	c := fake.NewSimpleClientset(
		d, current, previous, foreign,
		pod("web-new-1", "rs-new", labels),
		pod("web-old-1", "rs-old", labels),
		pod("web-foreign-1", "rs-foreign", labels),
		pod("api-1", "rs-new", map[string]string{"app": "api"}),
	)

	got, err := Get(ctx, "web", "app", c)
	require.NoError(t, err)

	result, err := GetPods(ctx, got, c)
	require.NoError(t, err)
	names := []string{}
	for _, p := range result {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"web-new-1", "web-old-1"}, names)
}

func TestGetPodsWithoutReplicaSets(t *testing.T) {
	d := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app", UID: "d-web"},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}},
		},
	}
	c := fake.NewSimpleClientset(d)
	result, err := GetPods(context.Background(), d, c)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGetPodsWithoutSelector(t *testing.T) {
	d := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app"}}
	_, err := GetPods(context.Background(), d, fake.NewSimpleClientset())
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	_, err := Get(context.Background(), "web", "app", fake.NewSimpleClientset())
	assert.ErrorIs(t, err, oktetoErrors.ErrNotFound)
	assert.Contains(t, err.Error(), "deployment 'web' in namespace 'app'")
}
