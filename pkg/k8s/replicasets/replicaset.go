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

package replicasets

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
)

// ListByDeployment returns the UIDs of the replica sets owned by a deployment
func ListByDeployment(ctx context.Context, d *appsv1.Deployment, selector string, c kubernetes.Interface) ([]types.UID, error) {
	rsList, err := c.AppsV1().ReplicaSets(d.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get replicasets using %s: %w", selector, err)
	}

	result := []types.UID{}
	for i := range rsList.Items {
		for _, or := range rsList.Items[i].OwnerReferences {
			if or.UID == d.UID {
				result = append(result, rsList.Items[i].UID)
				break
			}
		}
	}
	return result, nil
}
