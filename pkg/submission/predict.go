package submission

import (
	"fmt"

	"github.com/cyclopcam/logs"
	"github.com/tilevec/tilevec/pkg/maskstore"
	"github.com/tilevec/tilevec/pkg/seg"
)

// PredictMasks is the first pipeline phase: run inference for every id whose
// mask is not yet cached, strictly one image at a time (the model owns
// exclusive device resources). Already-cached ids are skipped, which is what
// makes an interrupted run resumable. The polygon phase must not start until
// this returns.
func PredictMasks(log logs.Log, model seg.Segmenter, store *maskstore.Store, ids []string) error {
	log.Infof("Predicting masks")
	for _, id := range ids {
		if store.Has(id) {
			log.Infof("Skip %v: already exists", id)
			continue
		}
		log.Infof("%v", id)
		m, err := model.Predict(id)
		if err != nil {
			return fmt.Errorf("Failed to predict mask for '%v': %w", id, err)
		}
		if err := store.Put(id, m); err != nil {
			return err
		}
	}
	return nil
}
