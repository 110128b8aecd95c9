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

package jobs

import (
	"context"
	"fmt"

	oktetoErrors "github.com/okteto/sshpod/pkg/errors"
	"github.com/okteto/sshpod/pkg/k8s/pods"
	batchv1 "k8s.io/api/batch/v1"
	apiv1 "k8s.io/api/core/v1"
	k8sErrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// jobNameLabel is set by the job controller on the pods it creates
const jobNameLabel = "job-name"

// Get returns a job object by name
func Get(ctx context.Context, name, namespace string, c kubernetes.Interface) (*batchv1.Job, error) {
	j, err := c.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if k8sErrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: job '%s' in namespace '%s'", oktetoErrors.ErrNotFound, name, namespace)
		}
		return nil, err
	}
	return j, nil
}

// GetPods returns the pods owned by a job
func GetPods(ctx context.Context, j *batchv1.Job, c kubernetes.Interface) ([]apiv1.Pod, error) {
	selector := fmt.Sprintf("%s=%s", jobNameLabel, j.Name)
	if j.Spec.Selector != nil {
		s, err := metav1.LabelSelectorAsSelector(j.Spec.Selector)
		if err != nil {
			return nil, fmt.Errorf("invalid selector of job '%s': %w", j.Name, err)
		}
		selector = s.String()
	}

	podList, err := pods.ListBySelector(ctx, j.Namespace, selector, c)
	if err != nil {
		return nil, err
	}
	return pods.OwnedBy(podList, j.UID), nil
}
